package fetcher

import "context"

// Request identifies one page to fetch for a key
type Request struct {
	// Key is the account address (or signature) the records belong to
	Key string
	// Cursor points at the oldest record already held. Empty requests the newest page.
	Cursor string
	// Limit is the requested page size
	Limit int
}

// Page is one batch of records returned by a PageFetcher, newest first
type Page[R any] struct {
	Records []R
	// IsLast is set when the source has no records older than this page
	IsLast bool
}

// PageFetcher is the boundary to a network client that returns records for a key.
// Implementations must be safe for concurrent use.
type PageFetcher[R any] interface {
	// FetchPage retrieves one page of records for req.Key, starting after req.Cursor.
	// Errors should be *FetchError values so callers can classify them.
	FetchPage(ctx context.Context, req Request) (Page[R], error)

	// Source names the upstream API and data set, e.g. "hellomoon:raffles"
	Source() string
}

// PageFetcherFunc adapts a function to the PageFetcher interface
type PageFetcherFunc[R any] struct {
	Name string
	Func func(ctx context.Context, req Request) (Page[R], error)
}

// FetchPage calls f.Func
func (f PageFetcherFunc[R]) FetchPage(ctx context.Context, req Request) (Page[R], error) {
	return f.Func(ctx, req)
}

// Source returns f.Name
func (f PageFetcherFunc[R]) Source() string {
	return f.Name
}
