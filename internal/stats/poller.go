package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chainexplorer/internal/solanarpc"
	"chainexplorer/internal/telemetry"
)

// DefaultInterval is how often cluster stats are refreshed
const DefaultInterval = 5 * time.Second

// Source returns cluster stats for one endpoint
type Source interface {
	Stats(ctx context.Context) (solanarpc.ClusterStats, error)
	Endpoint() string
}

// Snapshot is the latest known state of the poller
type Snapshot struct {
	Endpoint  string
	Stats     solanarpc.ClusterStats
	UpdatedAt time.Time
	// Active is false once the poller was stopped or hit an error
	Active bool
	Err    error
}

// HasStats reports whether at least one poll succeeded
func (s Snapshot) HasStats() bool {
	return !s.UpdatedAt.IsZero()
}

// Poller periodically fetches cluster stats from a Source. Results of a run
// that was stopped or replaced are discarded.
type Poller struct {
	interval time.Duration
	reporter telemetry.Reporter
	logger   *slog.Logger

	mu     sync.Mutex
	run    uint64
	cancel context.CancelFunc
	done   chan struct{}
	snap   Snapshot
}

// New creates a stopped poller
func New(interval time.Duration, reporter telemetry.Reporter, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval: interval,
		reporter: telemetry.Safe(reporter),
		logger:   logger,
	}
}

// Start stops any previous run and begins polling src. The first poll happens
// immediately.
func (p *Poller) Start(src Source) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.run++
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.snap = Snapshot{Endpoint: src.Endpoint(), Active: true}

	go p.loop(ctx, p.run, src, done)
}

// Stop halts polling and waits for the polling goroutine to exit. Safe to call
// on a stopped poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.run++
	p.snap.Active = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Snapshot returns the latest state
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Poller) loop(ctx context.Context, run uint64, src Source, done chan struct{}) {
	defer close(done)

	if !p.poll(ctx, run, src) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.poll(ctx, run, src) {
				return
			}
		}
	}
}

// poll fetches once and records the result. It returns false when the loop
// should exit.
func (p *Poller) poll(ctx context.Context, run uint64, src Source) bool {
	stats, err := src.Stats(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if run != p.run || ctx.Err() != nil {
		p.logger.Debug("discarding stats from stopped poller", "endpoint", src.Endpoint())
		return false
	}

	if err != nil {
		p.logger.Warn("cluster stats poll failed, stopping", "endpoint", src.Endpoint(), "error", err)
		p.reporter.Report(err, telemetry.Context{
			Endpoint: src.Endpoint(),
			Source:   "solana:stats",
		})
		p.snap.Active = false
		p.snap.Err = err
		return false
	}

	p.snap.Stats = stats
	p.snap.UpdatedAt = time.Now()
	p.snap.Err = nil
	return true
}
