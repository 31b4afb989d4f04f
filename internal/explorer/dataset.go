package explorer

import (
	"context"

	"chainexplorer/internal/cache"
	"chainexplorer/internal/coordinator"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/pagination"
)

// ViewState is what the UI should render for one key of a data set
type ViewState int

const (
	// ViewHidden means nothing was requested for the key yet
	ViewHidden ViewState = iota
	// ViewLoading means a fetch is running and there is nothing to show
	ViewLoading
	// ViewStale means a refresh is running over previously fetched data
	ViewStale
	// ViewFailed means the last fetch failed and a retry should be offered
	ViewFailed
	// ViewNotFound means the fetch succeeded with zero records
	ViewNotFound
	// ViewTooMany means the result is too large to render
	ViewTooMany
	// ViewReady means rows can be rendered
	ViewReady
)

func (v ViewState) String() string {
	switch v {
	case ViewHidden:
		return "hidden"
	case ViewLoading:
		return "loading"
	case ViewStale:
		return "stale"
	case ViewFailed:
		return "failed"
	case ViewNotFound:
		return "not_found"
	case ViewTooMany:
		return "too_many"
	case ViewReady:
		return "ready"
	default:
		return "unknown"
	}
}

// DataSet names one of the explorer's cached collections
type DataSet string

const (
	AccountRaffles     DataSet = "raffles"
	RaffleTransactions DataSet = "raffle_transactions"
	TokenActivity      DataSet = "token_activity"
	SignatureHistory   DataSet = "history"
	TransactionDetails DataSet = "transactions"
)

// Set is one cached data set: a store, the coordinator that fills it and the
// key format it accepts
type Set[R any] struct {
	name     DataSet
	coord    *coordinator.Coordinator[R]
	validKey func(string) error
	// maxRecords switches the view to ViewTooMany above this count; zero disables
	maxRecords int
}

// Name returns the data set name
func (s *Set[R]) Name() DataSet {
	return s.name
}

// GetEntry returns the cache entry for key
func (s *Set[R]) GetEntry(key string) (cache.Entry[coordinator.Data[R]], bool) {
	return s.coord.Entry(key)
}

// TriggerFetch validates key and fetches a page for it
func (s *Set[R]) TriggerFetch(ctx context.Context, key string, mode pagination.Mode) (cache.Entry[coordinator.Data[R]], error) {
	if err := s.validKey(key); err != nil {
		return cache.Entry[coordinator.Data[R]]{}, err
	}
	return s.coord.Fetch(ctx, key, mode)
}

// RefreshAll fetches every key concurrently. Invalid keys are reported in
// their result without being fetched.
func (s *Set[R]) RefreshAll(ctx context.Context, keys []string, mode pagination.Mode) []fetcher.Result {
	valid := make([]string, 0, len(keys))
	var invalid []fetcher.Result
	for _, key := range keys {
		if err := s.validKey(key); err != nil {
			invalid = append(invalid, fetcher.Result{Key: key, Error: err})
			continue
		}
		valid = append(valid, key)
	}
	return append(invalid, s.coord.RefreshAll(ctx, valid, mode)...)
}

// Records returns the accumulated records for key, nil when there are none
func (s *Set[R]) Records(key string) []R {
	entry, ok := s.coord.Entry(key)
	if !ok || !entry.HasData() {
		return nil
	}
	return entry.Data.Records
}

// FoundOldest reports whether every record for key has been loaded
func (s *Set[R]) FoundOldest(key string) bool {
	entry, ok := s.coord.Entry(key)
	return ok && entry.HasData() && entry.Data.FoundOldest
}

// ViewState classifies the entry for key
func (s *Set[R]) ViewState(key string) ViewState {
	entry, ok := s.coord.Entry(key)
	if !ok {
		return ViewHidden
	}

	switch entry.Status {
	case cache.Fetching:
		if entry.HasData() {
			return ViewStale
		}
		return ViewLoading
	case cache.FetchFailed:
		return ViewFailed
	}

	if !entry.HasData() || entry.Data.IsEmpty() {
		return ViewNotFound
	}
	if s.maxRecords > 0 && entry.Data.Len() > s.maxRecords {
		return ViewTooMany
	}
	return ViewReady
}

// Subscribe registers fn for changes to the underlying store
func (s *Set[R]) Subscribe(fn func(cache.Change)) func() {
	return s.coord.Store().Subscribe(fn)
}

func (s *Set[R]) clear(url string) {
	s.coord.Store().Clear(url)
}
