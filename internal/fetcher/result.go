package fetcher

// Result represents the outcome of fetching one key.
// It's collected from worker goroutines when several keys are refreshed together.
type Result struct {
	// Key is the cache key that was fetched
	Key string

	// Records is the number of records held for the key after the fetch
	Records int

	// Error contains any error that occurred during the fetch operation.
	// If Error is not nil, Records reflects data kept from earlier fetches.
	Error error
}
