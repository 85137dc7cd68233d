package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnauthorized means the API rejected the request for a missing or bad x-api-key.
	ErrUnauthorized = errors.New("jupiter: unauthorized, api key required")
	ErrNoPrice      = errors.New("jupiter: no price for mint")
	ErrNoQuote      = errors.New("jupiter: empty quote")
)

// PriceEntry is one mint in the /price/v3 response, which is keyed by mint.
type PriceEntry struct {
	USDPrice       float64 `json:"usdPrice"`
	BlockID        int64   `json:"blockId"`
	Decimals       int     `json:"decimals"`
	PriceChange24h float64 `json:"priceChange24h"`
}

// QuoteResponse is the /swap/v1/quote payload. Amounts are raw integers as strings.
type QuoteResponse struct {
	InputMint      string      `json:"inputMint"`
	InAmount       string      `json:"inAmount"`
	OutputMint     string      `json:"outputMint"`
	OutAmount      string      `json:"outAmount"`
	SwapMode       string      `json:"swapMode"`
	SlippageBps    int         `json:"slippageBps"`
	PriceImpactPct string      `json:"priceImpactPct"`
	RoutePlan      []RoutePlan `json:"routePlan"`
	ContextSlot    int64       `json:"contextSlot"`
	TimeTaken      float64     `json:"timeTaken"`
}

type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// Labels returns the distinct AMM labels of the route in order of appearance.
func (q QuoteResponse) Labels() []string {
	seen := make(map[string]struct{}, len(q.RoutePlan))
	var labels []string
	for _, step := range q.RoutePlan {
		label := step.SwapInfo.Label
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// QuoteRequest sells Amount raw units of InputMint for OutputMint.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      string
	SlippageBps int
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client; apiKey may be empty, in which case no x-api-key header is sent.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPrice returns the USD price of a single mint from the price endpoint.
func (c *Client) GetPrice(ctx context.Context, mint string) (*PriceEntry, error) {
	q := url.Values{}
	q.Set("ids", mint)

	var out map[string]*PriceEntry
	if err := c.get(ctx, "/price/v3", q, &out); err != nil {
		return nil, err
	}
	entry, ok := out[mint]
	if !ok || entry == nil || entry.USDPrice <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, mint)
	}
	return entry, nil
}

// GetQuote returns the best swap route for the request.
func (c *Client) GetQuote(ctx context.Context, r QuoteRequest) (*QuoteResponse, error) {
	q := url.Values{}
	q.Set("inputMint", r.InputMint)
	q.Set("outputMint", r.OutputMint)
	q.Set("amount", r.Amount)
	q.Set("slippageBps", strconv.Itoa(r.SlippageBps))

	var out QuoteResponse
	if err := c.get(ctx, "/swap/v1/quote", q, &out); err != nil {
		return nil, err
	}
	if out.OutAmount == "" || out.InAmount == "" {
		return nil, ErrNoQuote
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("jupiter http %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
