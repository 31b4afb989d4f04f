package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"chainexplorer/internal/cache"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/pagination"
	"chainexplorer/internal/telemetry"
)

const (
	defaultPageSize    = 25
	defaultConcurrency = 4
)

// ErrEmptyKey is returned when Fetch is called without a key
var ErrEmptyKey = errors.New("fetch key cannot be empty")

// Data is the value a Coordinator keeps per key
type Data[R any] = pagination.Accumulated[R]

// Options configures a Coordinator
type Options[R any] struct {
	// PageSize is the number of records requested per page
	PageSize int

	// Cursor derives the load-more cursor from the records already held.
	// When nil, load-more requests carry the record count as an offset.
	Cursor func(records []R) string

	// Validate checks each fetched record. A failing record aborts the fetch
	// for that key with a MalformedRecord error.
	Validate func(R) error

	// Reporter receives fetch failures. Defaults to telemetry.Nop.
	Reporter telemetry.Reporter

	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// Concurrency bounds RefreshAll
	Concurrency int
}

// Coordinator drives the cache entries of one store through their fetch
// states. At most one request per key is in flight: concurrent calls for a
// key that is already being fetched in the same mode wait for, and share,
// that request's result.
type Coordinator[R any] struct {
	store   *cache.Store[Data[R]]
	fetcher fetcher.PageFetcher[R]
	opts    Options[R]
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is one outstanding request. Its context is cancelled once every
// caller waiting on it has gone away.
type flight struct {
	mode    pagination.Mode
	ctx     context.Context
	cancel  context.CancelCauseFunc
	waiters int
	done    chan struct{}
}

// New creates a Coordinator writing to store and reading from f
func New[R any](store *cache.Store[Data[R]], f fetcher.PageFetcher[R], opts Options[R]) *Coordinator[R] {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Cursor == nil {
		opts.Cursor = func(records []R) string {
			return strconv.Itoa(len(records))
		}
	}
	opts.Reporter = telemetry.Safe(opts.Reporter)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator[R]{
		store:   store,
		fetcher: f,
		opts:    opts,
		logger:  logger.With("source", f.Source()),
		flights: make(map[string]*flight),
	}
}

// Store returns the store this coordinator writes to
func (c *Coordinator[R]) Store() *cache.Store[Data[R]] {
	return c.store
}

// Entry returns the cache entry for key
func (c *Coordinator[R]) Entry(key string) (cache.Entry[Data[R]], bool) {
	return c.store.Get(key)
}

// Fetch requests a page for key and merges it into the cache.
//
// pagination.Replace fetches the newest page and discards accumulated pages.
// pagination.Append fetches the page older than the oldest held record; it is a
// no-op once the oldest record was found, and behaves like Replace when
// nothing is cached yet.
//
// A call for a key that is already being fetched in the same mode joins the
// outstanding request and returns its outcome. A call in the other mode waits
// for that request to finish and then issues its own. The request keeps
// running while at least one caller still waits on it; a caller whose ctx
// ends first returns the context error without touching the entry.
func (c *Coordinator[R]) Fetch(ctx context.Context, key string, mode pagination.Mode) (cache.Entry[Data[R]], error) {
	if key == "" {
		return cache.Entry[Data[R]]{}, ErrEmptyKey
	}

	for {
		fl, results := c.join(ctx, key, mode)
		if results == nil {
			// Another mode is in flight
			select {
			case <-fl.done:
				continue
			case <-ctx.Done():
				entry, _ := c.store.Get(key)
				return entry, fetcher.ClassifyTransportError(ctx.Err())
			}
		}

		select {
		case res := <-results:
			c.leave(fl, nil)
			return c.outcome(key, res)
		case <-ctx.Done():
			if c.leave(fl, ctx.Err()) {
				// Last caller: the request is cancelled, wait for it to settle
				return c.outcome(key, <-results)
			}
			entry, _ := c.store.Get(key)
			return entry, fetcher.ClassifyTransportError(ctx.Err())
		}
	}
}

// join registers the caller with the flight for key. It returns a nil results
// channel when a flight in a different mode, or one every caller has left,
// must finish first.
func (c *Coordinator[R]) join(ctx context.Context, key string, mode pagination.Mode) (*flight, <-chan singleflight.Result) {
	generation, url := c.store.Generation()
	flightKey := strconv.FormatUint(generation, 10) + "/" + key

	c.mu.Lock()
	defer c.mu.Unlock()

	fl, ok := c.flights[flightKey]
	if ok && (fl.mode != mode || fl.waiters == 0) {
		return fl, nil
	}
	if !ok {
		fctx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
		fl = &flight{mode: mode, ctx: fctx, cancel: cancel, done: make(chan struct{})}
		c.flights[flightKey] = fl
	}
	fl.waiters++

	return fl, c.group.DoChan(flightKey, func() (interface{}, error) {
		defer func() {
			c.mu.Lock()
			c.group.Forget(flightKey)
			delete(c.flights, flightKey)
			c.mu.Unlock()
			fl.cancel(nil)
			close(fl.done)
		}()
		return c.fetch(fl.ctx, generation, url, key, mode)
	})
}

// leave removes a waiter from fl and reports whether it was the last one.
// The last caller to leave with a context error cancels the request with it.
func (c *Coordinator[R]) leave(fl *flight, cause error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return false
	}
	if cause != nil {
		fl.cancel(cause)
	}
	return true
}

func (c *Coordinator[R]) outcome(key string, res singleflight.Result) (cache.Entry[Data[R]], error) {
	if res.Shared {
		c.logger.Debug("fetch shared with concurrent callers", "key", key)
	}
	entry, _ := res.Val.(cache.Entry[Data[R]])
	return entry, res.Err
}

func (c *Coordinator[R]) fetch(ctx context.Context, generation uint64, url, key string, mode pagination.Mode) (cache.Entry[Data[R]], error) {
	current, ok := c.store.Get(key)

	var existing []R
	cursor := ""
	if mode == pagination.Append {
		if !ok || !current.HasData() {
			mode = pagination.Replace
		} else if current.Data.FoundOldest {
			return current, nil
		} else {
			existing = current.Data.Records
			cursor = c.opts.Cursor(existing)
		}
	}

	if err := c.store.MarkFetching(generation, key); err != nil {
		return current, fmt.Errorf("mark %s fetching: %w", key, err)
	}

	c.logger.Debug("fetching page", "key", key, "mode", mode.String(), "cursor", cursor)

	page, err := c.fetcher.FetchPage(ctx, fetcher.Request{
		Key:    key,
		Cursor: cursor,
		Limit:  c.opts.PageSize,
	})
	if err != nil && ctx.Err() != nil {
		// Every caller went away; classify by why they did
		err = fetcher.ClassifyTransportError(context.Cause(ctx))
	}
	if err == nil {
		err = c.validate(page.Records)
	}
	if err != nil {
		return c.fail(generation, url, key, err)
	}

	merged := pagination.Merge(existing, page.Records, mode, page.IsLast, c.opts.PageSize)
	if err := c.store.MarkFetched(generation, key, merged); err != nil {
		// The store was cleared while the request was in flight
		c.logger.Debug("discarding result for cleared store", "key", key, "error", err)
		return cache.Entry[Data[R]]{Key: key, Status: cache.Fetched, Data: &merged}, fmt.Errorf("store %s result: %w", key, err)
	}

	c.logger.Debug("fetched page",
		"key", key,
		"page_records", len(page.Records),
		"total_records", merged.Len(),
		"found_oldest", merged.FoundOldest)

	entry, _ := c.store.Get(key)
	return entry, nil
}

func (c *Coordinator[R]) validate(records []R) error {
	if c.opts.Validate == nil {
		return nil
	}
	for i, r := range records {
		if err := c.opts.Validate(r); err != nil {
			return fetcher.NewMalformedError(fmt.Sprintf("record %d failed validation", i), err)
		}
	}
	return nil
}

func (c *Coordinator[R]) fail(generation uint64, url, key string, err error) (cache.Entry[Data[R]], error) {
	if current, _ := c.store.Generation(); current != generation {
		// The endpoint changed while the request was in flight
		c.logger.Debug("discarding failure for cleared store", "key", key, "error", err)
		return cache.Entry[Data[R]]{}, err
	}

	c.opts.Reporter.Report(err, telemetry.Context{
		Endpoint: url,
		Source:   c.fetcher.Source(),
		Key:      key,
	})

	if markErr := c.store.MarkFailed(generation, key); markErr != nil {
		c.logger.Debug("discarding failure for cleared store", "key", key, "error", markErr)
		return cache.Entry[Data[R]]{}, err
	}

	c.logger.Warn("fetch failed",
		"key", key,
		"error_type", string(fetcher.TypeOf(err)),
		"retryable", fetcher.IsRetryable(err),
		"error", err.Error())

	entry, _ := c.store.Get(key)
	return entry, err
}

// RefreshAll fetches every key with a bounded number of workers and returns
// one result per key, ordered by key
func (c *Coordinator[R]) RefreshAll(ctx context.Context, keys []string, mode pagination.Mode) []fetcher.Result {
	p := pool.NewWithResults[fetcher.Result]().WithMaxGoroutines(c.opts.Concurrency)

	for _, key := range keys {
		p.Go(func() fetcher.Result {
			entry, err := c.Fetch(ctx, key, mode)
			result := fetcher.Result{Key: key, Error: err}
			if entry.HasData() {
				result.Records = entry.Data.Len()
			}
			return result
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}
