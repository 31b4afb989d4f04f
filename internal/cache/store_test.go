package cache

import (
	"errors"
	"sync"
	"testing"
)

type page struct {
	records []string
}

func TestNewStore(t *testing.T) {
	store := NewStore[page]("https://api.devnet.solana.com")

	if got := store.URL(); got != "https://api.devnet.solana.com" {
		t.Errorf("URL() = %q, want %q", got, "https://api.devnet.solana.com")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("Get() on empty store returned ok")
	}
}

func TestStore_MarkFetchingCreatesEntry(t *testing.T) {
	store := NewStore[page]("url")
	gen, _ := store.Generation()

	if err := store.MarkFetching(gen, "X"); err != nil {
		t.Fatalf("MarkFetching() returned unexpected error: %v", err)
	}

	entry, ok := store.Get("X")
	if !ok {
		t.Fatal("Get() returned !ok after MarkFetching")
	}
	if entry.Status != Fetching {
		t.Errorf("Status = %v, want %v", entry.Status, Fetching)
	}
	if entry.HasData() {
		t.Error("new entry should not carry data")
	}
}

func TestStore_FetchingPreservesData(t *testing.T) {
	store := NewStore[page]("url")
	gen, _ := store.Generation()

	if err := store.MarkFetched(gen, "X", page{records: []string{"a", "b"}}); err != nil {
		t.Fatalf("MarkFetched() returned unexpected error: %v", err)
	}
	if err := store.MarkFetching(gen, "X"); err != nil {
		t.Fatalf("MarkFetching() returned unexpected error: %v", err)
	}

	entry, _ := store.Get("X")
	if entry.Status != Fetching {
		t.Errorf("Status = %v, want %v", entry.Status, Fetching)
	}
	if !entry.HasData() || len(entry.Data.records) != 2 {
		t.Errorf("refresh dropped previous data: %+v", entry.Data)
	}

	if err := store.MarkFailed(gen, "X"); err != nil {
		t.Fatalf("MarkFailed() returned unexpected error: %v", err)
	}
	entry, _ = store.Get("X")
	if entry.Status != FetchFailed {
		t.Errorf("Status = %v, want %v", entry.Status, FetchFailed)
	}
	if !entry.HasData() {
		t.Error("failed fetch dropped previous data")
	}
}

func TestStore_ClearDropsEntries(t *testing.T) {
	store := NewStore[page]("tag1")
	gen, _ := store.Generation()
	for _, key := range []string{"A", "B", "C"} {
		if err := store.MarkFetched(gen, key, page{}); err != nil {
			t.Fatalf("MarkFetched(%q) returned unexpected error: %v", key, err)
		}
	}

	store.Clear("tag2")

	for _, key := range []string{"A", "B", "C"} {
		if _, ok := store.Get(key); ok {
			t.Errorf("Get(%q) returned an entry after Clear", key)
		}
	}
	if got := store.URL(); got != "tag2" {
		t.Errorf("URL() = %q, want %q", got, "tag2")
	}
}

func TestStore_RejectsStaleGeneration(t *testing.T) {
	store := NewStore[page]("tag1")
	gen, _ := store.Generation()

	if err := store.MarkFetching(gen, "X"); err != nil {
		t.Fatalf("MarkFetching() returned unexpected error: %v", err)
	}

	store.Clear("tag2")

	err := store.MarkFetched(gen, "X", page{records: []string{"from tag1"}})
	if !errors.Is(err, ErrStaleGeneration) {
		t.Fatalf("MarkFetched() error = %v, want %v", err, ErrStaleGeneration)
	}
	if _, ok := store.Get("X"); ok {
		t.Error("result from a cleared generation reached the store")
	}
}

func TestStore_EmptyKey(t *testing.T) {
	store := NewStore[page]("url")
	gen, _ := store.Generation()

	if err := store.MarkFetching(gen, ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("MarkFetching(\"\") error = %v, want %v", err, ErrEmptyKey)
	}
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore[page]("url")
	gen, _ := store.Generation()

	var changes []Change
	unsubscribe := store.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	_ = store.MarkFetching(gen, "X")
	store.Clear("url2")
	unsubscribe()
	gen, _ = store.Generation()
	_ = store.MarkFetching(gen, "Y")

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Key != "X" || changes[0].Cleared {
		t.Errorf("changes[0] = %+v, want update of X", changes[0])
	}
	if !changes[1].Cleared {
		t.Errorf("changes[1] = %+v, want clear", changes[1])
	}
}

func TestStore_Keys(t *testing.T) {
	store := NewStore[page]("url")
	gen, _ := store.Generation()
	for _, key := range []string{"c", "a", "b"} {
		_ = store.MarkFetching(gen, key)
	}

	keys := store.Keys()
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := NewStore[page]("url")
	gen, _ := store.Generation()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%10))
			_ = store.MarkFetching(gen, key)
			_ = store.MarkFetched(gen, key, page{})
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("Len() = %d, want 10", store.Len())
	}
}

func TestFetchStatus_String(t *testing.T) {
	tests := []struct {
		status FetchStatus
		want   string
	}{
		{Fetching, "fetching"},
		{Fetched, "fetched"},
		{FetchFailed, "fetch_failed"},
		{FetchStatus(9), "status(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
