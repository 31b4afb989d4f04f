package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReporter forwards errors to Sentry with the endpoint as a tag
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates a reporter with its own Sentry client and hub
func NewSentryReporter(opts sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	return &SentryReporter{
		hub: sentry.NewHub(client, sentry.NewScope()),
	}, nil
}

// Report captures err in an isolated scope tagged with ctx
func (r *SentryReporter) Report(err error, ctx Context) {
	if err == nil {
		return
	}
	defer func() {
		// Sentry failures must not surface to the fetch path
		_ = recover()
	}()

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("endpoint", ctx.Endpoint)
		if ctx.Source != "" {
			scope.SetTag("source", ctx.Source)
		}
		if ctx.Key != "" {
			scope.SetExtra("key", ctx.Key)
		}
		r.hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
