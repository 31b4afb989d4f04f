package testutil

import (
	"context"
	"strconv"
	"sync"

	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/telemetry"
)

// MockPageFetcher is a mock implementation of the PageFetcher interface for testing
type MockPageFetcher[R any] struct {
	FetchPageFunc func(ctx context.Context, req fetcher.Request) (fetcher.Page[R], error)
	SourceFunc    func() string

	mu       sync.Mutex
	requests []fetcher.Request
}

// FetchPage implements the PageFetcher interface
func (m *MockPageFetcher[R]) FetchPage(ctx context.Context, req fetcher.Request) (fetcher.Page[R], error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.FetchPageFunc != nil {
		return m.FetchPageFunc(ctx, req)
	}
	return fetcher.Page[R]{IsLast: true}, nil
}

// Source implements the PageFetcher interface
func (m *MockPageFetcher[R]) Source() string {
	if m.SourceFunc != nil {
		return m.SourceFunc()
	}
	return "mock:source"
}

// Requests returns a copy of every request received so far
func (m *MockPageFetcher[R]) Requests() []fetcher.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fetcher.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewMockPageFetcher creates a mock that serves pages from a fixed newest-first
// record list, using the request cursor as an offset
func NewMockPageFetcher[R any](records []R) *MockPageFetcher[R] {
	return &MockPageFetcher[R]{
		FetchPageFunc: func(ctx context.Context, req fetcher.Request) (fetcher.Page[R], error) {
			offset := 0
			if req.Cursor != "" {
				n, err := strconv.Atoi(req.Cursor)
				if err != nil {
					return fetcher.Page[R]{}, fetcher.NewClientError(400, "invalid cursor")
				}
				offset = n
			}
			if offset > len(records) {
				offset = len(records)
			}
			end := len(records)
			if req.Limit > 0 && offset+req.Limit < end {
				end = offset + req.Limit
			}
			page := make([]R, end-offset)
			copy(page, records[offset:end])
			return fetcher.Page[R]{Records: page, IsLast: end == len(records)}, nil
		},
	}
}

// NewFailingPageFetcher creates a mock that always returns err
func NewFailingPageFetcher[R any](err error) *MockPageFetcher[R] {
	return &MockPageFetcher[R]{
		FetchPageFunc: func(ctx context.Context, req fetcher.Request) (fetcher.Page[R], error) {
			return fetcher.Page[R]{}, err
		},
	}
}

// Report is one call captured by RecordingReporter
type Report struct {
	Err     error
	Context telemetry.Context
}

// RecordingReporter captures telemetry reports
type RecordingReporter struct {
	mu      sync.Mutex
	reports []Report
}

// Report implements telemetry.Reporter
func (r *RecordingReporter) Report(err error, ctx telemetry.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Err: err, Context: ctx})
}

// Reports returns a copy of the captured reports
func (r *RecordingReporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}
