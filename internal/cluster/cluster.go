package cluster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCluster is returned when a cluster slug is not recognised
var ErrUnknownCluster = errors.New("unknown cluster")

// Cluster is a Solana network the explorer can connect to
type Cluster int

const (
	Metaplex Cluster = iota
	MainnetBeta
	Testnet
	Devnet
)

// All lists the selectable clusters in menu order
var All = []Cluster{Metaplex, MainnetBeta, Testnet, Devnet}

// Default is the cluster used when none is configured
const Default = Metaplex

const (
	MainnetBetaURL = "https://api.mainnet-beta.solana.com"
	TestnetURL     = "https://api.testnet.solana.com"
	DevnetURL      = "https://api.devnet.solana.com"
)

// Slug returns the URL-safe cluster identifier
func (c Cluster) Slug() string {
	switch c {
	case Metaplex:
		return "metaplex"
	case MainnetBeta:
		return "mainnet-beta"
	case Testnet:
		return "testnet"
	case Devnet:
		return "devnet"
	default:
		return fmt.Sprintf("cluster-%d", int(c))
	}
}

// Name returns the display name
func (c Cluster) Name() string {
	switch c {
	case Metaplex:
		return "Metaplex"
	case MainnetBeta:
		return "Mainnet Beta"
	case Testnet:
		return "Testnet"
	case Devnet:
		return "Devnet"
	default:
		return fmt.Sprintf("Cluster %d", int(c))
	}
}

// String implements fmt.Stringer
func (c Cluster) String() string {
	return c.Slug()
}

// Parse resolves a slug to a Cluster
func Parse(slug string) (Cluster, error) {
	normalized := strings.ToLower(strings.TrimSpace(slug))
	for _, c := range All {
		if c.Slug() == normalized {
			return c, nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownCluster, slug)
}

// Endpoints holds the RPC URL of every cluster
type Endpoints struct {
	Metaplex    string
	MainnetBeta string
	Testnet     string
	Devnet      string
}

// DefaultEndpoints returns the public RPC URLs. The metaplex cluster has no
// public endpoint and must be configured.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		MainnetBeta: MainnetBetaURL,
		Testnet:     TestnetURL,
		Devnet:      DevnetURL,
	}
}

// URL returns the RPC URL for c. Empty entries fall back to the public
// endpoint of the cluster.
func (e Endpoints) URL(c Cluster) (string, error) {
	defaults := DefaultEndpoints()
	var url, fallback string
	switch c {
	case Metaplex:
		url, fallback = e.Metaplex, defaults.Metaplex
	case MainnetBeta:
		url, fallback = e.MainnetBeta, defaults.MainnetBeta
	case Testnet:
		url, fallback = e.Testnet, defaults.Testnet
	case Devnet:
		url, fallback = e.Devnet, defaults.Devnet
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownCluster, int(c))
	}

	if url == "" {
		url = fallback
	}
	if url == "" {
		return "", fmt.Errorf("no RPC URL configured for cluster %s", c.Slug())
	}
	return url, nil
}
