package explorer

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"chainexplorer/internal/balances"
	"chainexplorer/internal/events"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/filter"
	"chainexplorer/internal/pagination"
)

// ErrNoTransaction is returned when transaction details are not cached
var ErrNoTransaction = errors.New("transaction details not fetched")

// RaffleRows derives the raffle rows for an account and keeps those whose
// event matches criterion
func (e *Explorer) RaffleRows(address, criterion string) []events.RaffleRow {
	rows := events.RaffleRows(e.Raffles.Records(address))
	return filter.Project(rows, criterion, events.EventField)
}

// RaffleTransactionRows derives the rows of one raffle and its winner, if drawn
func (e *Explorer) RaffleTransactionRows(raffle, criterion string) ([]events.RaffleRow, string) {
	rows := events.RaffleRows(e.RaffleTransactions.Records(raffle))
	winner, _ := events.Winner(rows)
	return filter.Project(rows, criterion, events.EventField), winner
}

// TokenRows derives the buy-now rows of a wallet and keeps those whose mint
// matches criterion
func (e *Explorer) TokenRows(wallet, mint string) []events.TokenRow {
	rows := events.TokenRows(e.Tokens.Records(wallet))
	return filter.Project(rows, mint, events.MintField)
}

// TransactionRows derives the signature history rows of an address
func (e *Explorer) TransactionRows(address string) []events.TransactionRow {
	return events.TransactionRows(e.History.Records(address))
}

// EventFilterOptions returns the raffle event filter menu
func EventFilterOptions() []filter.Option {
	return filter.Options(events.KindStrings(), "All")
}

// TokenFilterOptions returns a mint filter menu built from the wallet's rows
func (e *Explorer) TokenFilterOptions(wallet string) []filter.Option {
	rows := events.TokenRows(e.Tokens.Records(wallet))
	mints := make([]string, len(rows))
	for i, r := range rows {
		mints[i] = r.TokenMint
	}
	return filter.Options(mints, "All")
}

// BalanceRows computes the token balance changes of a fetched transaction
func (e *Explorer) BalanceRows(signature string) ([]balances.Row, error) {
	records := e.Transactions.Records(signature)
	if len(records) == 0 {
		return nil, ErrNoTransaction
	}
	tx := records[0]
	return balances.Rows(tx.PreTokenBalances, tx.PostTokenBalances, tx.Accounts)
}

// FeePayerChange returns the SOL balance change of the fee payer
func (e *Explorer) FeePayerChange(signature string) (decimal.Decimal, error) {
	records := e.Transactions.Records(signature)
	if len(records) == 0 {
		return decimal.Zero, ErrNoTransaction
	}
	tx := records[0]
	delta, ok := balances.LamportDelta(tx.PreLamports, tx.PostLamports, 0)
	if !ok {
		return decimal.Zero, ErrNoTransaction
	}
	return balances.LamportsToSOL(delta), nil
}

// FetchTransactionDetails loads the details of every transaction in the
// cached signature history of address that is not fetched yet
func (e *Explorer) FetchTransactionDetails(ctx context.Context, address string) []fetcher.Result {
	history := e.History.Records(address)
	signatures := make([]string, 0, len(history))
	for _, info := range history {
		if entry, ok := e.Transactions.GetEntry(info.Signature); ok && entry.HasData() {
			continue
		}
		signatures = append(signatures, info.Signature)
	}
	return e.Transactions.RefreshAll(ctx, signatures, pagination.Replace)
}
