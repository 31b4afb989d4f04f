package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"chainexplorer/internal/filter"
	"chainexplorer/internal/pagination"
)

func newTokensCmd(a *app) *cobra.Command {
	var mint string

	cmd := &cobra.Command{
		Use:   "tokens WALLET...",
		Short: "Show recent token purchases of wallets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := a.explorer

			logResults(a.logger, e.Tokens.RefreshAll(ctx, args, pagination.Replace))

			out := cmd.OutOrStdout()
			for _, wallet := range args {
				fmt.Fprintf(out, "\nToken purchases of %s (filter: %s)\n",
					wallet, filter.Label(e.TokenFilterOptions(wallet), mint))
				if !writeState(out, "token activity", e.Tokens.ViewState(wallet), 0) {
					continue
				}

				rows := e.TokenRows(wallet, mint)
				if len(rows) == 0 {
					fmt.Fprintln(out, "  No purchases match the filter")
					continue
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "  SLOT\tTIME\tPRICE\tMINT\tSOURCE\tSIGNATURE\tSTATUS")
				for _, r := range rows {
					fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						r.Slot,
						formatTime(r.BlockTime),
						strconv.FormatFloat(r.Price, 'f', -1, 64),
						r.TokenMint,
						r.Source,
						r.Signature,
						r.Status.Text)
				}
				tw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mint, "filter", filter.All, "only show purchases of this token mint")

	return cmd
}
