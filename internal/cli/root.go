package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"chainexplorer/internal/cluster"
	"chainexplorer/internal/config"
	"chainexplorer/internal/explorer"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/hellomoon"
	"chainexplorer/internal/magiceden"
	"chainexplorer/internal/ratelimit"
	"chainexplorer/internal/telemetry"
)

const sentryFlushTimeout = 2 * time.Second

// annotationNoCredentials marks commands that work without API credentials
const annotationNoCredentials = "chainexplorer/no-credentials"

// Options configures the root command
type Options struct {
	// Load reads the configuration. Defaults to config.Load.
	Load func() (*config.Config, error)
	// LoadClusters reads the configuration for commands that need no API
	// credentials. Defaults to config.LoadClusters.
	LoadClusters func() (*config.Config, error)
	// Limiter throttles outgoing requests. Nil uses ratelimit.DefaultLimits.
	Limiter *ratelimit.Limiter
}

// app holds what every subcommand needs once the root command has set up
type app struct {
	opts     Options
	cfg      *config.Config
	logger   *slog.Logger
	explorer *explorer.Explorer
	flush    func()
}

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Load == nil {
		opts.Load = config.Load
	}
	if opts.LoadClusters == nil {
		opts.LoadClusters = config.LoadClusters
	}
	a := &app{opts: opts}
	var clusterSlug string

	cmd := &cobra.Command{
		Use:           "chainexplorer",
		Short:         "Explore raffle, token and transaction activity of Solana accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, clusterSlug)
		},
	}

	cmd.PersistentFlags().StringVar(&clusterSlug, "cluster", "", "cluster to connect to (metaplex, mainnet-beta, testnet, devnet)")
	cmd.AddCommand(
		newRafflesCmd(a),
		newRaffleCmd(a),
		newTokensCmd(a),
		newHistoryCmd(a),
		newStatsCmd(a),
		newClustersCmd(a),
	)

	// Cobra skips post-run hooks when RunE fails, so teardown is deferred
	// around each command instead
	for _, sub := range cmd.Commands() {
		run := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				err = errors.Join(err, a.teardown())
			}()
			return run(cmd, args)
		}
	}

	return cmd
}

func (a *app) setup(cmd *cobra.Command, clusterSlug string) (err error) {
	load := a.opts.Load
	if cmd.Annotations[annotationNoCredentials] != "" {
		load = a.opts.LoadClusters
	}
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if clusterSlug != "" {
		if _, err := cluster.Parse(clusterSlug); err != nil {
			return err
		}
		cfg.Cluster = clusterSlug
	}
	a.cfg = cfg

	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(a.logger)

	reporter, err := a.newReporter()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			a.teardown()
		}
	}()

	limiter := a.opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultLimits)
	}
	if cfg.RPCRateLimit > 0 {
		limiter.Set(ratelimit.APISolanaRPC, rate.Limit(cfg.RPCRateLimit))
	}

	httpOpts := fetcher.HTTPOptions{
		Timeout:    cfg.RequestTimeout,
		RetryCount: cfg.RequestRetries,
	}
	helloMoon := fetcher.NewHTTPClient(cfg.HelloMoonBaseURL, httpOpts)
	magicEden := fetcher.NewHTTPClient(cfg.MagicEdenBaseURL, httpOpts)

	e, err := explorer.New(explorer.Options{
		Cluster:       cfg.StartCluster(),
		Endpoints:     cfg.Endpoints(),
		PageSize:      cfg.PageSize,
		TokenPageSize: cfg.TokenPageSize,
		StatsInterval: cfg.StatsInterval,
		Limiter:       limiter,
		Reporter:      reporter,
		Logger:        a.logger,
	}, explorer.Sources{
		Raffles:            hellomoon.NewRaffleEventsFetcher(cfg.HelloMoonAPIKey, hellomoon.ByUserAccount, helloMoon, limiter),
		RaffleTransactions: hellomoon.NewRaffleEventsFetcher(cfg.HelloMoonAPIKey, hellomoon.ByRaffleAccount, helloMoon, limiter),
		Tokens:             magiceden.NewActivitiesFetcher(magicEden, limiter),
	})
	if err != nil {
		return err
	}
	a.explorer = e

	a.logger.Debug("explorer ready",
		"cluster", e.Cluster().Slug(),
		"endpoint", e.Endpoint(),
		"page_size", cfg.PageSize)
	return nil
}

// newReporter logs every failure and also sends it to Sentry when a DSN is set
func (a *app) newReporter() (telemetry.Reporter, error) {
	logReporter := telemetry.NewLogReporter(a.logger)
	if a.cfg.SentryDSN == "" {
		a.flush = func() {}
		return logReporter, nil
	}

	sentryReporter, err := telemetry.NewSentryReporter(sentry.ClientOptions{
		Dsn:         a.cfg.SentryDSN,
		Environment: a.cfg.Cluster,
	})
	if err != nil {
		return nil, err
	}
	a.flush = func() { sentryReporter.Flush(sentryFlushTimeout) }
	return telemetry.Multi{logReporter, sentryReporter}, nil
}

// teardown releases what setup created. It is safe to call more than once.
func (a *app) teardown() error {
	var err error
	if a.explorer != nil {
		err = a.explorer.Close()
		a.explorer = nil
	}
	if a.flush != nil {
		a.flush()
		a.flush = nil
	}
	return err
}

// newLogger builds a text logger; unknown levels fall back to info
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
