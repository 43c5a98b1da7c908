package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/reward-scanner/internal/config"
	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HeliumClient fetches account activity and oracle prices from the Helium ledger API.
// Every request waits on a shared limiter so consecutive calls are spaced by the
// configured delay. Calls are never retried.
type HeliumClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHeliumClient creates a new ledger API client
func NewHeliumClient(cfg *config.APIConfig) *HeliumClient {
	return &HeliumClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newPacer(cfg.RateLimitDelay),
	}
}

// newPacer returns a limiter admitting one request per delay.
// The first request goes through immediately.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// activityResponse mirrors GET /accounts/{address}/activity
type activityResponse struct {
	Data   []types.ActivityEntry `json:"data"`
	Cursor *string               `json:"cursor"`
}

// priceResponse mirrors GET /oracle/prices/{height}
type priceResponse struct {
	Data *struct {
		Price     *int64         `json:"price"`
		Timestamp epochTimestamp `json:"timestamp"`
		Block     int64          `json:"block"`
	} `json:"data"`
}

// FetchActivityPage fetches one page of account activity.
// An empty cursor requests the first page.
func (c *HeliumClient) FetchActivityPage(ctx context.Context, address, cursor string) (*types.ActivityPage, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/activity", c.baseURL, url.PathEscape(address))
	if cursor != "" {
		endpoint += "?cursor=" + url.QueryEscape(cursor)
	}

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp activityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse activity page: %w", err)
	}

	page := &types.ActivityPage{Data: resp.Data}
	if resp.Cursor != nil {
		page.Cursor = *resp.Cursor
	}

	logging.FromContext(ctx).Debugf("Fetched activity page for %s: %d entries, more=%t", address, len(page.Data), page.HasMore())
	return page, nil
}

// PriceAtBlock returns the oracle price quote in effect at the given block height
func (c *HeliumClient) PriceAtBlock(ctx context.Context, height int64) (*types.BlockPrice, error) {
	endpoint := fmt.Sprintf("%s/oracle/prices/%d", c.baseURL, height)

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse price response: %w", err)
	}
	if resp.Data == nil {
		return nil, apperrors.NewProviderResponseError(endpoint, "data")
	}
	if resp.Data.Price == nil {
		return nil, apperrors.NewProviderResponseError(endpoint, "data.price")
	}

	quote := &types.BlockPrice{
		Height:    height,
		Price:     *resp.Data.Price,
		Timestamp: int64(resp.Data.Timestamp),
	}

	logging.FromContext(ctx).Infof("Price at block %d: %v at %d", height, quote.DisplayPrice(), quote.Timestamp)
	return quote, nil
}

// doRequest paces, sends a GET and returns the body of a 2xx response.
// Any other status becomes a provider status error.
func (c *HeliumClient) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewProviderStatusError(endpoint, resp.StatusCode)
	}

	return body, nil
}

// epochTimestamp accepts either epoch seconds or an RFC 3339 string
type epochTimestamp int64

func (t *epochTimestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = epochTimestamp(secs)
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("unsupported timestamp %q: %w", s, err)
		}
		*t = epochTimestamp(parsed.Unix())
		return nil
	}

	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("unsupported timestamp %s: %w", string(data), err)
	}
	*t = epochTimestamp(int64(secs))
	return nil
}
