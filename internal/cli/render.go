package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"chainexplorer/internal/explorer"
	"chainexplorer/internal/fetcher"
)

const placeholder = "-"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatSlot(slot *uint64) string {
	if slot == nil {
		return placeholder
	}
	return strconv.FormatUint(*slot, 10)
}

func formatTime(unix int64) string {
	if unix == 0 {
		return placeholder
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func formatOptTime(unix *int64) string {
	if unix == nil {
		return placeholder
	}
	return formatTime(*unix)
}

func formatAmount(v *float64) string {
	if v == nil {
		return placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(s *string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

// writeState prints the message for views that have no rows to show and
// reports whether rows should be rendered
func writeState(w io.Writer, what string, state explorer.ViewState, count int) bool {
	switch state {
	case explorer.ViewHidden:
		fmt.Fprintf(w, "  %s not loaded\n", what)
	case explorer.ViewLoading:
		fmt.Fprintf(w, "  Loading %s...\n", what)
	case explorer.ViewFailed:
		fmt.Fprintf(w, "  Failed to fetch %s, run the command again to retry\n", what)
	case explorer.ViewNotFound:
		fmt.Fprintf(w, "  No %s found\n", what)
	case explorer.ViewTooMany:
		fmt.Fprintf(w, "  Too many %s to display (%d)\n", what, count)
	default:
		return true
	}
	return false
}

// logResults logs every failed fetch of a batch
func logResults(logger *slog.Logger, results []fetcher.Result) {
	for _, r := range results {
		if r.Error != nil {
			logger.Warn("fetch failed", "key", r.Key, "error", r.Error)
			continue
		}
		logger.Debug("fetched", "key", r.Key, "records", r.Records)
	}
}
