package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("twelvedata: api key not configured")
	ErrUnauthorized  = errors.New("twelvedata: authentication failed, check api key")
	ErrRateLimited   = errors.New("twelvedata: rate limit exceeded")
	ErrNoData        = errors.New("twelvedata: no price data")
)

// APIError is the body Twelve Data returns on failure, often with HTTP 200.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twelvedata error %d: %s", e.Code, e.Message)
}

type PriceResponse struct {
	Price string `json:"price"`
}

// QuoteResponse holds the subset of /quote used here. Numbers are strings.
type QuoteResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Currency      string `json:"currency"`
	Datetime      string `json:"datetime"`
	Timestamp     int64  `json:"timestamp"` // unix seconds
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	Volume        string `json:"volume"`
	PreviousClose string `json:"previous_close"`
	PercentChange string `json:"percent_change"`
	IsMarketOpen  *bool  `json:"is_market_open"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// GetPrice calls the real-time /price endpoint.
func (c *Client) GetPrice(ctx context.Context, symbol string) (*PriceResponse, error) {
	var out PriceResponse
	if err := c.get(ctx, "/price", symbol, &out); err != nil {
		return nil, err
	}
	if out.Price == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return &out, nil
}

// GetQuote calls /quote, which carries volume, exchange and market status.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*QuoteResponse, error) {
	var out QuoteResponse
	if err := c.get(ctx, "/quote", symbol, &out); err != nil {
		return nil, err
	}
	if out.Close == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return &out, nil
}

// IsMarketOpen reports the exchange session state of symbol's listing.
func (c *Client) IsMarketOpen(ctx context.Context, symbol string) (bool, error) {
	q, err := c.GetQuote(ctx, symbol)
	if err != nil {
		return false, err
	}
	if q.IsMarketOpen == nil {
		return false, fmt.Errorf("%w: market status for %s", ErrNoData, symbol)
	}
	return *q.IsMarketOpen, nil
}

func (c *Client) get(ctx context.Context, path, symbol string, dst any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twelvedata http %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Status == "error" {
		if err := statusError(apiErr.Code); err != nil {
			return fmt.Errorf("%w: %s", err, apiErr.Message)
		}
		return &apiErr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
