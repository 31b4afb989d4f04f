package solanarpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"chainexplorer/internal/events"
	"chainexplorer/internal/fetcher"
)

// MaxSignaturesLimit is the largest page getSignaturesForAddress returns
const MaxSignaturesLimit = 1000

// SignaturesFetcher pages through the confirmed signature history of an address
type SignaturesFetcher struct {
	client *Client
}

// NewSignaturesFetcher creates a signature history fetcher
func NewSignaturesFetcher(client *Client) *SignaturesFetcher {
	return &SignaturesFetcher{client: client}
}

// FetchPage returns signatures for the address in req.Key, newest first. The
// cursor is the oldest signature already held.
func (f *SignaturesFetcher) FetchPage(ctx context.Context, req fetcher.Request) (fetcher.Page[events.SignatureInfo], error) {
	address, err := solana.PublicKeyFromBase58(req.Key)
	if err != nil {
		return fetcher.Page[events.SignatureInfo]{}, fetcher.NewClientError(0, fmt.Sprintf("invalid address %q", req.Key))
	}

	limit := req.Limit
	if limit <= 0 || limit > MaxSignaturesLimit {
		limit = MaxSignaturesLimit
	}
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	}
	if req.Cursor != "" {
		before, err := solana.SignatureFromBase58(req.Cursor)
		if err != nil {
			return fetcher.Page[events.SignatureInfo]{}, fetcher.NewClientError(0, fmt.Sprintf("invalid cursor %q", req.Cursor))
		}
		opts.Before = before
	}

	if err := f.client.wait(ctx); err != nil {
		return fetcher.Page[events.SignatureInfo]{}, err
	}

	out, err := f.client.rpc.GetSignaturesForAddressWithOpts(ctx, address, opts)
	if err != nil {
		return fetcher.Page[events.SignatureInfo]{}, fmt.Errorf("failed to fetch signatures for %s: %w", req.Key, classify(err))
	}

	records := make([]events.SignatureInfo, 0, len(out))
	for _, sig := range out {
		if sig == nil {
			continue
		}
		info := events.SignatureInfo{
			Signature:          sig.Signature.String(),
			Slot:               sig.Slot,
			Err:                errString(sig.Err),
			Memo:               sig.Memo,
			ConfirmationStatus: string(sig.ConfirmationStatus),
		}
		if sig.BlockTime != nil {
			t := int64(*sig.BlockTime)
			info.BlockTime = &t
		}
		records = append(records, info)
	}

	return fetcher.Page[events.SignatureInfo]{
		Records: records,
		IsLast:  len(records) < limit,
	}, nil
}

// Source names the data set this fetcher serves
func (f *SignaturesFetcher) Source() string {
	return "solana:signatures"
}
