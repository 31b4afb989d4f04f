package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"chainexplorer/internal/events"
	"chainexplorer/internal/explorer"
	"chainexplorer/internal/filter"
	"chainexplorer/internal/pagination"
)

func newRafflesCmd(a *app) *cobra.Command {
	var criterion string
	var more int

	cmd := &cobra.Command{
		Use:   "raffles ADDRESS...",
		Short: "Show raffle events of accounts",
		Example: `  # Raffle history of a wallet
  chainexplorer raffles 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM

  # Only ticket purchases, loading two extra pages
  chainexplorer raffles 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM --filter buy_tickets --more 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := a.explorer

			logResults(a.logger, e.Raffles.RefreshAll(ctx, args, pagination.Replace))
			for i := 0; i < more; i++ {
				logResults(a.logger, e.Raffles.RefreshAll(ctx, args, pagination.Append))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Filter: %s\n", filter.Label(explorer.EventFilterOptions(), criterion))
			for _, address := range args {
				fmt.Fprintf(out, "\nRaffles of %s\n", address)
				records := len(e.Raffles.Records(address))
				if !writeState(out, "raffles", e.Raffles.ViewState(address), records) {
					continue
				}
				writeRaffleRows(out, e.RaffleRows(address, criterion), false)
				if !e.Raffles.FoundOldest(address) {
					fmt.Fprintln(out, "  (more raffles available, use --more)")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&criterion, "filter", filter.All, "only show events of this kind, e.g. buy_tickets")
	cmd.Flags().IntVar(&more, "more", 0, "number of additional pages to load")

	return cmd
}

func newRaffleCmd(a *app) *cobra.Command {
	var criterion string

	cmd := &cobra.Command{
		Use:   "raffle RAFFLE_ACCOUNT",
		Short: "Show every transaction of one raffle and its winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := a.explorer
			raffle := args[0]

			if _, err := e.RaffleTransactions.TriggerFetch(ctx, raffle, pagination.Replace); err != nil {
				a.logger.Warn("fetch failed", "key", raffle, "error", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Raffle %s\n", raffle)
			records := len(e.RaffleTransactions.Records(raffle))
			if !writeState(out, "raffle transactions", e.RaffleTransactions.ViewState(raffle), records) {
				return nil
			}

			rows, winner := e.RaffleTransactionRows(raffle, criterion)
			if winner != "" {
				fmt.Fprintf(out, "Winner: %s\n", winner)
			}
			writeRaffleRows(out, rows, true)
			return nil
		},
	}

	cmd.Flags().StringVar(&criterion, "filter", filter.All, "only show events of this kind")

	return cmd
}

func writeRaffleRows(w io.Writer, rows []events.RaffleRow, withUser bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "  No events match the filter")
		return
	}

	showTime := events.AnyTimestamp(rows)
	tw := newTable(w)
	header := "  SLOT\tSIGNATURE\tEVENT\tSTATUS\tTICKETS\tPRICE\tPRIZE"
	if showTime {
		header += "\tTIME"
	}
	if withUser {
		header += "\tUSER"
	}
	fmt.Fprintln(tw, header)

	for _, r := range rows {
		line := fmt.Sprintf("  %s\t%s\t%s\t%s\t%s\t%s\t%s",
			formatSlot(r.Slot),
			r.Signature,
			r.Event,
			r.Status.Text,
			formatAmount(r.NumberOfTickets),
			formatAmount(r.UnitPrice),
			formatString(r.PrizeMint))
		if showTime {
			line += "\t" + formatTime(r.BlockTime)
		}
		if withUser {
			line += "\t" + r.UserAccount
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}
