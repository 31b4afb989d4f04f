package solanarpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"chainexplorer/internal/balances"
	"chainexplorer/internal/fetcher"
)

// Transaction holds the parts of a confirmed transaction the explorer displays
type Transaction struct {
	Signature string
	Slot      uint64
	BlockTime *int64
	Fee       uint64
	Err       *string
	// Accounts lists static keys followed by loaded writable and loaded
	// read-only addresses, matching the indexes used by balances
	Accounts          []string
	PreLamports       []uint64
	PostLamports      []uint64
	PreTokenBalances  []balances.TokenBalance
	PostTokenBalances []balances.TokenBalance
}

// Validate checks the fields every transaction must carry
func (t Transaction) Validate() error {
	if t.Signature == "" {
		return errors.New("validate transaction: missing signature")
	}
	if len(t.Accounts) == 0 {
		return fmt.Errorf("validate transaction %q: no account keys", t.Signature)
	}
	if len(t.PreLamports) != len(t.PostLamports) {
		return fmt.Errorf("validate transaction %q: %d pre balances, %d post balances",
			t.Signature, len(t.PreLamports), len(t.PostLamports))
	}
	return nil
}

// TransactionFetcher loads one transaction by signature. Each key yields a
// single-record page.
type TransactionFetcher struct {
	client *Client
}

// NewTransactionFetcher creates a transaction detail fetcher
func NewTransactionFetcher(client *Client) *TransactionFetcher {
	return &TransactionFetcher{client: client}
}

// FetchPage returns the transaction with signature req.Key. A transaction the
// node does not know yields an empty page.
func (f *TransactionFetcher) FetchPage(ctx context.Context, req fetcher.Request) (fetcher.Page[Transaction], error) {
	sig, err := solana.SignatureFromBase58(req.Key)
	if err != nil {
		return fetcher.Page[Transaction]{}, fetcher.NewClientError(0, fmt.Sprintf("invalid signature %q", req.Key))
	}

	if err := f.client.wait(ctx); err != nil {
		return fetcher.Page[Transaction]{}, err
	}

	maxVersion := uint64(0)
	out, err := f.client.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && out == nil) {
		return fetcher.Page[Transaction]{IsLast: true}, nil
	}
	if err != nil {
		return fetcher.Page[Transaction]{}, fmt.Errorf("failed to fetch transaction %s: %w", req.Key, classify(err))
	}

	tx, err := decodeTransaction(sig, out)
	if err != nil {
		return fetcher.Page[Transaction]{}, fetcher.NewMalformedError(fmt.Sprintf("transaction %s", req.Key), err)
	}

	return fetcher.Page[Transaction]{
		Records: []Transaction{tx},
		IsLast:  true,
	}, nil
}

// Source names the data set this fetcher serves
func (f *TransactionFetcher) Source() string {
	return "solana:transaction"
}

func decodeTransaction(sig solana.Signature, out *rpc.GetTransactionResult) (Transaction, error) {
	if out.Transaction == nil {
		return Transaction{}, errors.New("missing transaction body")
	}
	if out.Meta == nil {
		return Transaction{}, errors.New("missing transaction meta")
	}

	parsed, err := out.Transaction.GetTransaction()
	if err != nil {
		return Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}

	keys := make([]string, 0, len(parsed.Message.AccountKeys)+
		len(out.Meta.LoadedAddresses.Writable)+len(out.Meta.LoadedAddresses.ReadOnly))
	for _, k := range parsed.Message.AccountKeys {
		keys = append(keys, k.String())
	}
	for _, k := range out.Meta.LoadedAddresses.Writable {
		keys = append(keys, k.String())
	}
	for _, k := range out.Meta.LoadedAddresses.ReadOnly {
		keys = append(keys, k.String())
	}

	tx := Transaction{
		Signature:         sig.String(),
		Slot:              out.Slot,
		Fee:               out.Meta.Fee,
		Err:               errString(out.Meta.Err),
		Accounts:          keys,
		PreLamports:       out.Meta.PreBalances,
		PostLamports:      out.Meta.PostBalances,
		PreTokenBalances:  tokenBalances(out.Meta.PreTokenBalances),
		PostTokenBalances: tokenBalances(out.Meta.PostTokenBalances),
	}
	if out.BlockTime != nil {
		t := int64(*out.BlockTime)
		tx.BlockTime = &t
	}
	return tx, nil
}

func tokenBalances(in []rpc.TokenBalance) []balances.TokenBalance {
	out := make([]balances.TokenBalance, 0, len(in))
	for _, b := range in {
		tb := balances.TokenBalance{
			AccountIndex: int(b.AccountIndex),
			Mint:         b.Mint.String(),
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			tb.Amount = balances.UIAmount{
				Amount:         b.UiTokenAmount.Amount,
				Decimals:       b.UiTokenAmount.Decimals,
				UIAmount:       b.UiTokenAmount.UiAmount,
				UIAmountString: b.UiTokenAmount.UiAmountString,
			}
		}
		out = append(out, tb)
	}
	return out
}
