package magiceden

import (
	"context"
	"fmt"
	"strconv"

	"resty.dev/v3"

	"chainexplorer/internal/events"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/ratelimit"
)

const (
	// DefaultBaseURL is the Magic Eden public API
	DefaultBaseURL = "https://api-mainnet.magiceden.dev"

	// MaxPageSize is the largest limit the activities endpoint accepts
	MaxPageSize = 500

	walletActivitiesPath = "/v2/wallets/{wallet}/activities"
)

// ActivitiesFetcher fetches marketplace activities for a wallet
type ActivitiesFetcher struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewActivitiesFetcher creates a new wallet activities fetcher
func NewActivitiesFetcher(client *resty.Client, limiter *ratelimit.Limiter) *ActivitiesFetcher {
	return &ActivitiesFetcher{
		client:  client,
		limiter: limiter,
	}
}

// FetchPage retrieves one page of activities for the wallet in req.Key. The
// cursor is the offset into the wallet's activity list.
func (f *ActivitiesFetcher) FetchPage(ctx context.Context, req fetcher.Request) (fetcher.Page[events.TokenActivity], error) {
	limit := req.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	offset := "0"
	if req.Cursor != "" {
		if n, err := strconv.Atoi(req.Cursor); err != nil || n < 0 {
			return fetcher.Page[events.TokenActivity]{}, fetcher.NewClientError(0, fmt.Sprintf("invalid cursor %q", req.Cursor))
		}
		offset = req.Cursor
	}

	if err := f.limiter.Wait(ctx, ratelimit.APIMagicEden); err != nil {
		return fetcher.Page[events.TokenActivity]{}, fetcher.ClassifyTransportError(err)
	}

	var result []events.TokenActivity
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("wallet", req.Key).
		SetQueryParams(map[string]string{
			"offset": offset,
			"limit":  strconv.Itoa(limit),
		}).
		SetResult(&result).
		Get(walletActivitiesPath)

	if err := fetcher.CheckResponse(resp, err); err != nil {
		return fetcher.Page[events.TokenActivity]{}, fmt.Errorf("failed to fetch activities for %s: %w", req.Key, err)
	}

	return fetcher.Page[events.TokenActivity]{
		Records: result,
		IsLast:  len(result) < limit,
	}, nil
}

// Source names the data set this fetcher serves
func (f *ActivitiesFetcher) Source() string {
	return "magiceden:activities"
}
