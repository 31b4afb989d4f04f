package cache

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrEmptyKey is returned when an update names no key
	ErrEmptyKey = errors.New("cache key cannot be empty")
	// ErrStaleGeneration is returned when an update was issued against a
	// generation that has since been cleared
	ErrStaleGeneration = errors.New("cache generation is stale")
)

// Change describes a mutation applied to a Store. Cleared is set for a
// store-wide Clear, in which case Key is empty.
type Change struct {
	Key        string
	Cleared    bool
	Generation uint64
}

// Store maps keys to entries for a single network endpoint.
//
// All mutations are serialized by one mutex, so no two of them interleave.
// Every Clear starts a new generation; updates carry the generation they were
// started under and are rejected once it is no longer current, which keeps a
// result fetched from one endpoint out of a store that has moved to another.
type Store[T any] struct {
	mu          sync.RWMutex
	url         string
	generation  uint64
	entries     map[string]Entry[T]
	subscribers map[int]func(Change)
	nextSubID   int
}

// NewStore creates an empty store bound to the given endpoint URL
func NewStore[T any](url string) *Store[T] {
	return &Store[T]{
		url:         url,
		entries:     make(map[string]Entry[T]),
		subscribers: make(map[int]func(Change)),
	}
}

// URL returns the endpoint the current entries belong to
func (s *Store[T]) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Generation returns the current generation and endpoint URL as one snapshot
func (s *Store[T]) Generation() (uint64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation, s.url
}

// Clear drops every entry and records url as the active endpoint
func (s *Store[T]) Clear(url string) {
	s.mu.Lock()
	s.entries = make(map[string]Entry[T])
	s.url = url
	s.generation++
	change := Change{Cleared: true, Generation: s.generation}
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	notify(subs, change)
}

// MarkFetching moves key to Fetching, creating the entry if needed.
// Existing data is preserved.
func (s *Store[T]) MarkFetching(generation uint64, key string) error {
	return s.update(generation, key, Fetching, nil)
}

// MarkFetched moves key to Fetched and replaces its data
func (s *Store[T]) MarkFetched(generation uint64, key string, data T) error {
	return s.update(generation, key, Fetched, &data)
}

// MarkFailed moves key to FetchFailed. Existing data is preserved.
func (s *Store[T]) MarkFailed(generation uint64, key string) error {
	return s.update(generation, key, FetchFailed, nil)
}

// update inserts or updates the entry for key. data overwrites the stored
// value only when non-nil.
func (s *Store[T]) update(generation uint64, key string, status FetchStatus, data *T) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return ErrStaleGeneration
	}

	entry, ok := s.entries[key]
	if !ok {
		entry = Entry[T]{Key: key}
	}
	entry.Status = status
	if data != nil {
		entry.Data = data
	}
	s.entries[key] = entry

	change := Change{Key: key, Generation: s.generation}
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	notify(subs, change)
	return nil
}

// Get returns the entry for key. The second result is false when the key has
// never been dispatched in the current generation.
func (s *Store[T]) Get(key string) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Keys returns the keys present in the current generation, sorted
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of entries in the current generation
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers fn to be called after every mutation. Callbacks run on
// the mutating goroutine after the store lock is released. The returned
// function removes the subscription.
func (s *Store[T]) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store[T]) snapshotSubscribers() []func(Change) {
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}
