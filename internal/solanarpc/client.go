package solanarpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/ratelimit"
)

// Client wraps a cluster JSON-RPC endpoint
type Client struct {
	endpoint string
	rpc      *rpc.Client
	limiter  *ratelimit.Limiter
}

// NewClient creates a client for the JSON-RPC endpoint
func NewClient(endpoint string, limiter *ratelimit.Limiter) *Client {
	return &Client{
		endpoint: endpoint,
		rpc:      rpc.New(endpoint),
		limiter:  limiter,
	}
}

// Endpoint returns the URL the client talks to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases the underlying HTTP transport
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx, ratelimit.APISolanaRPC); err != nil {
		return fetcher.ClassifyTransportError(err)
	}
	return nil
}

// classify maps JSON-RPC client errors onto the FetchError taxonomy
func classify(err error) error {
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		fe := fetcher.ClassifyHTTPError(httpErr.Code)
		fe.Cause = err
		return fe
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == http.StatusTooManyRequests {
			return fetcher.NewRateLimitError(rpcErr.Code)
		}
		return fetcher.NewClientError(0, fmt.Sprintf("rpc error %d: %s", rpcErr.Code, rpcErr.Message))
	}

	return fetcher.ClassifyTransportError(err)
}

// errString renders a transaction error returned by the node, nil when the
// transaction succeeded
func errString(v any) *string {
	if v == nil {
		return nil
	}
	var s string
	if b, err := json.Marshal(v); err == nil {
		s = string(b)
	} else {
		s = fmt.Sprint(v)
	}
	return &s
}
