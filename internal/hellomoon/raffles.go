package hellomoon

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"resty.dev/v3"

	"chainexplorer/internal/events"
	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/ratelimit"
)

const (
	// DefaultBaseURL is the production Hello Moon REST endpoint
	DefaultBaseURL = "https://rest-api.hellomoon.io"

	// MaxPageSize is the largest limit the raffle events endpoint accepts
	MaxPageSize = 1000

	raffleEventsPath = "/v0/foxy/raffle-events"
)

// Filter selects which account field the raffle events are matched on
type Filter string

const (
	// ByUserAccount returns events signed by the account (raffles it joined or created)
	ByUserAccount Filter = "userAccount"
	// ByRaffleAccount returns every event of one raffle
	ByRaffleAccount Filter = "raffleAccount"
)

// RaffleEventsResponse represents the Hello Moon response for raffle events
type RaffleEventsResponse struct {
	Data            []json.RawMessage `json:"data"`
	PaginationToken string            `json:"paginationToken"`
}

// requiredFields mirrors the non-nullable part of the event schema so that
// missing fields can be told apart from zero values
type requiredFields struct {
	BlockTime           *int64  `json:"blockTime"`
	TransactionID       *string `json:"transactionId"`
	InstructionOrdinal  *int    `json:"instructionOrdinal"`
	TransactionPosition *int    `json:"transactionPosition"`
	UserAccount         *string `json:"userAccount"`
	Event               *string `json:"event"`
}

// RaffleEventsFetcher fetches raffle program events for an account
type RaffleEventsFetcher struct {
	apiKey  string
	filter  Filter
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewRaffleEventsFetcher creates a new raffle events fetcher
func NewRaffleEventsFetcher(apiKey string, filter Filter, client *resty.Client, limiter *ratelimit.Limiter) *RaffleEventsFetcher {
	return &RaffleEventsFetcher{
		apiKey:  apiKey,
		filter:  filter,
		client:  client,
		limiter: limiter,
	}
}

// FetchPage retrieves one page of raffle events for req.Key. The cursor is the
// number of events already held.
func (f *RaffleEventsFetcher) FetchPage(ctx context.Context, req fetcher.Request) (fetcher.Page[events.RawEvent], error) {
	limit := req.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	offset := 0
	if req.Cursor != "" {
		n, err := strconv.Atoi(req.Cursor)
		if err != nil || n < 0 {
			return fetcher.Page[events.RawEvent]{}, fetcher.NewClientError(0, fmt.Sprintf("invalid cursor %q", req.Cursor))
		}
		offset = n
	}

	if err := f.limiter.Wait(ctx, ratelimit.APIHelloMoon); err != nil {
		return fetcher.Page[events.RawEvent]{}, fetcher.ClassifyTransportError(err)
	}

	var result RaffleEventsResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+f.apiKey).
		SetBody(map[string]any{
			string(f.filter): req.Key,
			"limit":          limit,
			"page":           offset/limit + 1,
		}).
		SetResult(&result).
		Post(raffleEventsPath)

	if err := fetcher.CheckResponse(resp, err); err != nil {
		return fetcher.Page[events.RawEvent]{}, fmt.Errorf("failed to fetch raffle events for %s: %w", req.Key, err)
	}

	records := make([]events.RawEvent, 0, len(result.Data))
	for i, raw := range result.Data {
		event, err := decodeEvent(raw)
		if err != nil {
			return fetcher.Page[events.RawEvent]{}, fetcher.NewMalformedError(fmt.Sprintf("raffle event %d", i), err)
		}
		records = append(records, event)
	}

	return fetcher.Page[events.RawEvent]{
		Records: records,
		IsLast:  len(records) < limit,
	}, nil
}

// Source names the data set this fetcher serves
func (f *RaffleEventsFetcher) Source() string {
	return fmt.Sprintf("hellomoon:raffles:%s", f.filter)
}

func decodeEvent(raw json.RawMessage) (events.RawEvent, error) {
	var required requiredFields
	if err := json.Unmarshal(raw, &required); err != nil {
		return events.RawEvent{}, err
	}

	var missing []string
	if required.BlockTime == nil {
		missing = append(missing, "blockTime")
	}
	if required.TransactionID == nil {
		missing = append(missing, "transactionId")
	}
	if required.InstructionOrdinal == nil {
		missing = append(missing, "instructionOrdinal")
	}
	if required.TransactionPosition == nil {
		missing = append(missing, "transactionPosition")
	}
	if required.UserAccount == nil {
		missing = append(missing, "userAccount")
	}
	if required.Event == nil {
		missing = append(missing, "event")
	}
	if len(missing) > 0 {
		return events.RawEvent{}, fmt.Errorf("missing required fields %v", missing)
	}

	var event events.RawEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return events.RawEvent{}, err
	}
	return event, nil
}
