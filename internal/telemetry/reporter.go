package telemetry

import (
	"log/slog"
)

// Context is attached to every reported error
type Context struct {
	// Endpoint is the network URL the failing request was sent to
	Endpoint string
	// Source names the data set, e.g. "hellomoon:raffles"
	Source string
	// Key is the cache key being fetched, when known
	Key string
}

// Reporter receives errors for out-of-band telemetry.
// Report is fire-and-forget and must never panic.
type Reporter interface {
	Report(err error, ctx Context)
}

// Nop discards every report
type Nop struct{}

// Report does nothing
func (Nop) Report(error, Context) {}

// LogReporter writes reports to a structured logger
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter that logs at error level. A nil logger uses slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report logs err with its context
func (r *LogReporter) Report(err error, ctx Context) {
	if err == nil {
		return
	}
	r.logger.Error("fetch failed",
		"endpoint", ctx.Endpoint,
		"source", ctx.Source,
		"key", ctx.Key,
		"error", err.Error())
}

// Multi fans a report out to several reporters
type Multi []Reporter

// Report forwards to every reporter, isolating panics
func (m Multi) Report(err error, ctx Context) {
	for _, r := range m {
		safeReport(r, err, ctx)
	}
}

// Safe wraps r so that a panicking reporter cannot take the caller down
func Safe(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return safeReporter{inner: r}
}

type safeReporter struct {
	inner Reporter
}

func (s safeReporter) Report(err error, ctx Context) {
	safeReport(s.inner, err, ctx)
}

func safeReport(r Reporter, err error, ctx Context) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("telemetry reporter panicked", "panic", rec)
		}
	}()
	r.Report(err, ctx)
}
