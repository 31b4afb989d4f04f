package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"chainexplorer/internal/balances"
	"chainexplorer/internal/explorer"
	"chainexplorer/internal/pagination"
)

func newHistoryCmd(a *app) *cobra.Command {
	var more int
	var details bool

	cmd := &cobra.Command{
		Use:   "history ADDRESS",
		Short: "Show the transaction history of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := a.explorer
			address := args[0]

			if _, err := e.History.TriggerFetch(ctx, address, pagination.Replace); err != nil {
				a.logger.Warn("fetch failed", "key", address, "error", err)
			}
			for i := 0; i < more && !e.History.FoundOldest(address); i++ {
				if _, err := e.History.TriggerFetch(ctx, address, pagination.Append); err != nil {
					a.logger.Warn("load more failed", "key", address, "error", err)
					break
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transaction history of %s on %s\n", address, e.Cluster().Name())
			if !writeState(out, "transactions", e.History.ViewState(address), 0) {
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "  SLOT\tSIGNATURE\tTIME\tSTATUS")
			for _, r := range e.TransactionRows(address) {
				fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", r.Slot, r.Signature, formatOptTime(r.BlockTime), r.Status.Text)
			}
			tw.Flush()

			if e.History.FoundOldest(address) {
				fmt.Fprintln(out, "  Fetched full history")
			} else {
				fmt.Fprintln(out, "  (older transactions available, use --more)")
			}

			if details {
				logResults(a.logger, e.FetchTransactionDetails(ctx, address))
				for _, r := range e.TransactionRows(address) {
					writeDetails(out, e, r.Signature)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&more, "more", 0, "number of additional pages to load")
	cmd.Flags().BoolVar(&details, "details", false, "fetch each transaction and show balance changes")

	return cmd
}

func writeDetails(w io.Writer, e *explorer.Explorer, signature string) {
	fmt.Fprintf(w, "\nTransaction %s\n", signature)
	if !writeState(w, "transaction", e.Transactions.ViewState(signature), 0) {
		return
	}

	if change, err := e.FeePayerChange(signature); err == nil {
		fmt.Fprintf(w, "  Fee payer change: %s SOL\n", balances.FormatDelta(change))
	}

	rows, err := e.BalanceRows(signature)
	if err != nil {
		fmt.Fprintf(w, "  Token balances unavailable: %v\n", err)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "  No token balance changes")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "  ACCOUNT\tMINT\tCHANGE\tPOST BALANCE")
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Account, r.Mint, balances.FormatDelta(r.Delta), r.Balance.UIAmountString)
	}
	tw.Flush()
}
