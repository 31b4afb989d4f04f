package cache

import "fmt"

// FetchStatus is the state of the most recent fetch for a cache key
type FetchStatus int

const (
	// Fetching means a request for the key is outstanding
	Fetching FetchStatus = iota
	// Fetched means the last request succeeded and Data holds its result
	Fetched
	// FetchFailed means the last request failed; Data keeps the last good value, if any
	FetchFailed
)

// String returns a lowercase name for the status
func (s FetchStatus) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	case FetchFailed:
		return "fetch_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Entry is the fetch state attached to one key of a Store.
//
// Data is nil until the key has been Fetched at least once. It is kept while the
// key is re-fetched or after a failed fetch so readers can keep showing the last
// known good value. Readers must treat the pointed-to value as immutable.
type Entry[T any] struct {
	Key    string
	Status FetchStatus
	Data   *T
}

// HasData reports whether the entry holds a result from a successful fetch
func (e Entry[T]) HasData() bool {
	return e.Data != nil
}

// IsFetching reports whether a request for the key is outstanding
func (e Entry[T]) IsFetching() bool {
	return e.Status == Fetching
}
