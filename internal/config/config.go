package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chainexplorer/internal/cluster"
	"chainexplorer/internal/hellomoon"
	"chainexplorer/internal/magiceden"
	"chainexplorer/internal/solanarpc"
)

// maxPageSize is the largest page every history source can serve in one request
const maxPageSize = min(hellomoon.MaxPageSize, solanarpc.MaxSignaturesLimit)

// Config holds all configuration for the explorer.
type Config struct {
	// Cluster is the slug of the network to start on
	Cluster string `mapstructure:"cluster"`

	// RPC endpoints per cluster; empty values use the public endpoint
	MetaplexRPCURL string `mapstructure:"metaplex_rpc_url"`
	MainnetRPCURL  string `mapstructure:"mainnet_rpc_url"`
	TestnetRPCURL  string `mapstructure:"testnet_rpc_url"`
	DevnetRPCURL   string `mapstructure:"devnet_rpc_url"`

	// Indexer and marketplace APIs
	HelloMoonAPIKey  string `mapstructure:"hellomoon_api_key"`
	HelloMoonBaseURL string `mapstructure:"hellomoon_base_url"`
	MagicEdenBaseURL string `mapstructure:"magiceden_base_url"`

	PageSize int `mapstructure:"page_size"`
	// TokenPageSize is the number of marketplace activities fetched per wallet
	// before they are narrowed to purchases
	TokenPageSize  int           `mapstructure:"token_page_size"`
	StatsInterval  time.Duration `mapstructure:"stats_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RequestRetries is the retry count for HTTP APIs; negative disables retries
	RequestRetries int `mapstructure:"request_retries"`
	// RPCRateLimit overrides the JSON-RPC requests per second; zero keeps the default
	RPCRateLimit float64 `mapstructure:"rpc_rate_limit"`

	// SentryDSN enables error reporting to Sentry when set
	SentryDSN string `mapstructure:"sentry_dsn"`
	LogLevel  string `mapstructure:"log_level"`
}

// Endpoints returns the configured RPC URL of every cluster
func (c *Config) Endpoints() cluster.Endpoints {
	return cluster.Endpoints{
		Metaplex:    c.MetaplexRPCURL,
		MainnetBeta: c.MainnetRPCURL,
		Testnet:     c.TestnetRPCURL,
		Devnet:      c.DevnetRPCURL,
	}
}

// StartCluster returns the parsed cluster setting
func (c *Config) StartCluster() cluster.Cluster {
	cl, err := cluster.Parse(c.Cluster)
	if err != nil {
		return cluster.Default
	}
	return cl
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - HELLOMOON_API_KEY
//   - CLUSTER (optional, defaults to metaplex)
//   - METAPLEX_RPC_URL, MAINNET_RPC_URL, TESTNET_RPC_URL, DEVNET_RPC_URL (optional)
//   - HELLOMOON_BASE_URL, MAGICEDEN_BASE_URL (optional, defaults to production)
//   - PAGE_SIZE, TOKEN_PAGE_SIZE, STATS_INTERVAL (optional)
//   - REQUEST_TIMEOUT, REQUEST_RETRIES, RPC_RATE_LIMIT (optional)
//   - SENTRY_DSN (optional)
//   - LOG_LEVEL (optional, defaults to info)
func Load() (*Config, error) {
	return load(true)
}

// LoadClusters reads the same configuration as Load without requiring API
// credentials. It serves commands that only resolve cluster endpoints.
func LoadClusters() (*Config, error) {
	return load(false)
}

func load(requireCredentials bool) (*Config, error) {
	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	v.SetDefault("cluster", cluster.Default.Slug())
	v.SetDefault("metaplex_rpc_url", cluster.MainnetBetaURL)
	v.SetDefault("hellomoon_base_url", hellomoon.DefaultBaseURL)
	v.SetDefault("magiceden_base_url", magiceden.DefaultBaseURL)
	v.SetDefault("page_size", 25)
	v.SetDefault("token_page_size", 200)
	v.SetDefault("stats_interval", 5*time.Second)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("request_retries", 3)
	v.SetDefault("log_level", "info")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.chainexplorer")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	v.BindEnv("hellomoon_api_key", "HELLOMOON_API_KEY")
	v.BindEnv("sentry_dsn", "SENTRY_DSN")
	v.BindEnv("cluster", "CLUSTER")

	v.BindEnv("metaplex_rpc_url", "METAPLEX_RPC_URL")
	v.BindEnv("mainnet_rpc_url", "MAINNET_RPC_URL")
	v.BindEnv("testnet_rpc_url", "TESTNET_RPC_URL")
	v.BindEnv("devnet_rpc_url", "DEVNET_RPC_URL")
	v.BindEnv("hellomoon_base_url", "HELLOMOON_BASE_URL")
	v.BindEnv("magiceden_base_url", "MAGICEDEN_BASE_URL")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(requireCredentials); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate(requireCredentials bool) error {
	var missing []string
	if requireCredentials && c.HelloMoonAPIKey == "" {
		missing = append(missing, "HELLOMOON_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	var invalid []string
	if _, err := cluster.Parse(c.Cluster); err != nil {
		invalid = append(invalid, fmt.Sprintf("CLUSTER (%v)", err))
	}
	if c.PageSize <= 0 || c.PageSize > maxPageSize {
		invalid = append(invalid, fmt.Sprintf("PAGE_SIZE must be between 1 and %d, got %d", maxPageSize, c.PageSize))
	}
	if c.TokenPageSize <= 0 || c.TokenPageSize > magiceden.MaxPageSize {
		invalid = append(invalid, fmt.Sprintf("TOKEN_PAGE_SIZE must be between 1 and %d, got %d", magiceden.MaxPageSize, c.TokenPageSize))
	}
	if c.RPCRateLimit < 0 {
		invalid = append(invalid, fmt.Sprintf("RPC_RATE_LIMIT must not be negative, got %g", c.RPCRateLimit))
	}
	if c.StatsInterval <= 0 {
		invalid = append(invalid, fmt.Sprintf("STATS_INTERVAL must be positive, got %s", c.StatsInterval))
	}
	if c.RequestTimeout <= 0 {
		invalid = append(invalid, fmt.Sprintf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, fmt.Sprintf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
	}
	return nil
}
