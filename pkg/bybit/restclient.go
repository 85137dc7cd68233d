package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNoTicker is returned when Bybit answers successfully but lists nothing
// for the requested symbol (unlisted pair).
var ErrNoTicker = errors.New("bybit: no ticker for symbol")

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// GetTicker fetches the 24h ticker of one symbol in the given category.
func (c *RESTClient) GetTicker(ctx context.Context, category, symbol string) (*TickerResult, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)
	endpoint := c.baseURL + "/v5/market/tickers?" + q.Encode()

	var result TickerListResponse
	serverTime, err := c.get(ctx, endpoint, &result)
	if err != nil {
		return nil, err
	}
	if len(result.List) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTicker, symbol)
	}

	return &TickerResult{Ticker: result.List[0], ServerTime: serverTime}, nil
}

// get performs a GET against the v5 API, checks the envelope and decodes
// result into dst. It returns the server timestamp.
func (c *RESTClient) get(ctx context.Context, endpoint string, dst any) (int64, error) {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, fmt.Errorf("bybit http %d: %s", resp.StatusCode, body)
	}

	var rawResp BybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if rawResp.RetCode != 0 {
		return 0, fmt.Errorf("bybit error %d: %s", rawResp.RetCode, rawResp.RetMsg)
	}

	if err := json.Unmarshal(rawResp.Result, dst); err != nil {
		return 0, fmt.Errorf("decode result: %w", err)
	}
	return rawResp.Time, nil
}
