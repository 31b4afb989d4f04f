package pagination

import "fmt"

// Mode selects how a freshly fetched page is combined with cached records
type Mode int

const (
	// Replace discards cached records and keeps only the new page.
	// Used for the initial fetch and for refreshes.
	Replace Mode = iota
	// Append adds the new page after the cached records. The page must hold
	// records strictly older than the oldest cached one.
	Append
)

// String returns a lowercase name for the mode
func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Accumulated is the merged, newest-first record list for one key
type Accumulated[R any] struct {
	Records []R
	// FoundOldest is set once the source has no records older than the last one held
	FoundOldest bool
}

// Len returns the number of accumulated records
func (a Accumulated[R]) Len() int {
	return len(a.Records)
}

// IsEmpty reports whether nothing has been accumulated
func (a Accumulated[R]) IsEmpty() bool {
	return len(a.Records) == 0
}

// Merge combines existing records with a newly fetched page.
//
// No de-duplication is done: callers must not request overlapping ranges.
// FoundOldest is true when the source flagged the page as its last one or the
// page came back shorter than pageSize. A pageSize of zero disables the short
// page check. The result never aliases existing.
func Merge[R any](existing []R, page []R, mode Mode, isLast bool, pageSize int) Accumulated[R] {
	var records []R
	switch mode {
	case Append:
		records = make([]R, 0, len(existing)+len(page))
		records = append(records, existing...)
		records = append(records, page...)
	default:
		records = make([]R, 0, len(page))
		records = append(records, page...)
	}

	return Accumulated[R]{
		Records:     records,
		FoundOldest: isLast || (pageSize > 0 && len(page) < pageSize),
	}
}
