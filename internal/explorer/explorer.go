package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chainexplorer/internal/cache"
	"chainexplorer/internal/cluster"
	"chainexplorer/internal/coordinator"
	"chainexplorer/internal/events"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/ratelimit"
	"chainexplorer/internal/solanarpc"
	"chainexplorer/internal/stats"
	"chainexplorer/internal/telemetry"
)

// MaxRaffleRecords is the largest account raffle history rendered as a table
const MaxRaffleRecords = 100

// DefaultTokenPageSize is the number of marketplace activities fetched per
// wallet; only purchases among them are shown
const DefaultTokenPageSize = 200

// Options configures an Explorer
type Options struct {
	Cluster       cluster.Cluster
	Endpoints     cluster.Endpoints
	PageSize      int
	TokenPageSize int
	StatsInterval time.Duration
	Limiter       *ratelimit.Limiter
	Reporter      telemetry.Reporter
	Logger        *slog.Logger
}

// Sources are the indexer and marketplace clients. They serve every cluster.
type Sources struct {
	Raffles            fetcher.PageFetcher[events.RawEvent]
	RaffleTransactions fetcher.PageFetcher[events.RawEvent]
	Tokens             fetcher.PageFetcher[events.TokenActivity]
}

// Explorer owns the cached data sets for the active cluster
type Explorer struct {
	opts   Options
	logger *slog.Logger
	poller *stats.Poller

	mu       sync.RWMutex
	cluster  cluster.Cluster
	endpoint string
	rpc      *solanarpc.Client
	polling  bool

	Raffles            *Set[events.RawEvent]
	RaffleTransactions *Set[events.RawEvent]
	Tokens             *Set[events.TokenActivity]
	History            *Set[events.SignatureInfo]
	Transactions       *Set[solanarpc.Transaction]
}

// New creates an explorer connected to opts.Cluster. The stats poller is not
// started until Start is called.
func New(opts Options, sources Sources) (*Explorer, error) {
	endpoint, err := opts.Endpoints.URL(opts.Cluster)
	if err != nil {
		return nil, fmt.Errorf("resolve endpoint: %w", err)
	}
	if opts.Reporter == nil {
		opts.Reporter = telemetry.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TokenPageSize <= 0 {
		opts.TokenPageSize = DefaultTokenPageSize
	}

	e := &Explorer{
		opts:     opts,
		logger:   opts.Logger,
		poller:   stats.New(opts.StatsInterval, opts.Reporter, opts.Logger),
		cluster:  opts.Cluster,
		endpoint: endpoint,
		rpc:      solanarpc.NewClient(endpoint, opts.Limiter),
	}

	e.Raffles = newSet(AccountRaffles, endpoint, sources.Raffles, opts, ValidateAddress,
		coordinator.Options[events.RawEvent]{Validate: events.RawEvent.Validate})
	e.Raffles.maxRecords = MaxRaffleRecords

	e.RaffleTransactions = newSet(RaffleTransactions, endpoint, sources.RaffleTransactions, opts, ValidateAddress,
		coordinator.Options[events.RawEvent]{Validate: events.RawEvent.Validate})

	e.Tokens = newSet(TokenActivity, endpoint, sources.Tokens, opts, ValidateAddress,
		coordinator.Options[events.TokenActivity]{
			PageSize: opts.TokenPageSize,
			Validate: events.TokenActivity.Validate,
		})

	history := fetcher.PageFetcherFunc[events.SignatureInfo]{
		Name: "solana:signatures",
		Func: func(ctx context.Context, req fetcher.Request) (fetcher.Page[events.SignatureInfo], error) {
			return solanarpc.NewSignaturesFetcher(e.client()).FetchPage(ctx, req)
		},
	}
	e.History = newSet(SignatureHistory, endpoint, history, opts, ValidateAddress,
		coordinator.Options[events.SignatureInfo]{
			Validate: events.SignatureInfo.Validate,
			Cursor:   events.SignatureCursor,
		})

	transactions := fetcher.PageFetcherFunc[solanarpc.Transaction]{
		Name: "solana:transaction",
		Func: func(ctx context.Context, req fetcher.Request) (fetcher.Page[solanarpc.Transaction], error) {
			return solanarpc.NewTransactionFetcher(e.client()).FetchPage(ctx, req)
		},
	}
	e.Transactions = newSet(TransactionDetails, endpoint, transactions, opts, ValidateSignature,
		coordinator.Options[solanarpc.Transaction]{Validate: solanarpc.Transaction.Validate})

	return e, nil
}

func newSet[R any](name DataSet, endpoint string, f fetcher.PageFetcher[R], opts Options, validKey func(string) error, copts coordinator.Options[R]) *Set[R] {
	if copts.PageSize <= 0 {
		copts.PageSize = opts.PageSize
	}
	copts.Reporter = opts.Reporter
	copts.Logger = opts.Logger.With("data_set", string(name))
	store := cache.NewStore[coordinator.Data[R]](endpoint)
	return &Set[R]{
		name:     name,
		coord:    coordinator.New(store, f, copts),
		validKey: validKey,
	}
}

func (e *Explorer) client() *solanarpc.Client {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rpc
}

// Cluster returns the active cluster
func (e *Explorer) Cluster() cluster.Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cluster
}

// Endpoint returns the RPC URL of the active cluster
func (e *Explorer) Endpoint() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.endpoint
}

// Start begins polling cluster stats
func (e *Explorer) Start() {
	e.mu.Lock()
	e.polling = true
	rpc := e.rpc
	e.mu.Unlock()

	e.poller.Start(rpc)
}

// Stats returns the latest cluster stats snapshot
func (e *Explorer) Stats() stats.Snapshot {
	return e.poller.Snapshot()
}

// SetCluster switches to c. Every data set is cleared and results of requests
// issued against the previous endpoint are discarded. A running stats poller
// is restarted against the new endpoint.
func (e *Explorer) SetCluster(c cluster.Cluster) error {
	endpoint, err := e.opts.Endpoints.URL(c)
	if err != nil {
		return fmt.Errorf("resolve endpoint: %w", err)
	}

	e.poller.Stop()

	e.mu.Lock()
	polling := e.polling
	old := e.rpc
	e.cluster = c
	e.endpoint = endpoint
	e.rpc = solanarpc.NewClient(endpoint, e.opts.Limiter)

	e.Raffles.clear(endpoint)
	e.RaffleTransactions.clear(endpoint)
	e.Tokens.clear(endpoint)
	e.History.clear(endpoint)
	e.Transactions.clear(endpoint)
	e.mu.Unlock()

	if err := old.Close(); err != nil {
		e.logger.Debug("closing previous rpc client", "endpoint", old.Endpoint(), "error", err)
	}

	e.logger.Info("switched cluster", "cluster", c.Slug(), "endpoint", endpoint)

	if polling {
		e.Start()
	}
	return nil
}

// Close stops polling and releases the RPC client
func (e *Explorer) Close() error {
	e.mu.Lock()
	e.polling = false
	e.mu.Unlock()

	e.poller.Stop()
	return e.client().Close()
}
