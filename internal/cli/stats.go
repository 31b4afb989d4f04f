package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"chainexplorer/internal/cluster"
	"chainexplorer/internal/stats"
)

const snapshotPollInterval = 50 * time.Millisecond

func newStatsCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show live cluster statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e := a.explorer
			out := cmd.OutOrStdout()

			e.Start()

			var last time.Time
			ticker := time.NewTicker(snapshotPollInterval)
			defer ticker.Stop()

			for printed := 0; count <= 0 || printed < count; {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}

				snap := e.Stats()
				if snap.UpdatedAt.After(last) {
					last = snap.UpdatedAt
					writeStats(out, snap)
					printed++
				}
				if !snap.Active {
					if snap.Err != nil {
						return fmt.Errorf("cluster stats unavailable: %w", snap.Err)
					}
					return nil
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of updates to print, 0 to run until interrupted")

	return cmd
}

func writeStats(w io.Writer, s stats.Snapshot) {
	fmt.Fprintf(w, "%s epoch %d (%.1f%%) slot %d block height %d transactions %d\n",
		s.UpdatedAt.UTC().Format(time.RFC3339),
		s.Stats.Epoch,
		s.Stats.EpochProgress()*100,
		s.Stats.AbsoluteSlot,
		s.Stats.BlockHeight,
		s.Stats.TransactionCount)
}

func newClustersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "clusters",
		Short:       "List the configured clusters",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoCredentials: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			active := a.explorer.Cluster()
			endpoints := a.cfg.Endpoints()

			tw := newTable(out)
			fmt.Fprintln(tw, "  \tSLUG\tNAME\tURL")
			for _, c := range cluster.All {
				marker := ""
				if c == active {
					marker = "*"
				}
				url, err := endpoints.URL(c)
				if err != nil {
					url = placeholder
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", marker, c.Slug(), c.Name(), url)
			}
			return tw.Flush()
		},
	}
}
