package kyberswap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RoutesResponse is the /{chain}/api/v1/routes envelope. Code 0 means success.
type RoutesResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    *RoutesData `json:"data"`
}

type RoutesData struct {
	RouteSummary  RouteSummary `json:"routeSummary"`
	RouterAddress string       `json:"routerAddress"`
}

// RouteSummary amounts are raw integers (smallest unit) or USD decimals, all as strings.
type RouteSummary struct {
	TokenIn      string  `json:"tokenIn"`
	AmountIn     string  `json:"amountIn"`
	AmountInUsd  string  `json:"amountInUsd"`
	TokenOut     string  `json:"tokenOut"`
	AmountOut    string  `json:"amountOut"`
	AmountOutUsd string  `json:"amountOutUsd"`
	Gas          string  `json:"gas"`
	GasUsd       string  `json:"gasUsd"`
	Route        [][]Hop `json:"route"`
}

// Hop is one pool swap inside a split route.
type Hop struct {
	Pool       string `json:"pool"`
	TokenIn    string `json:"tokenIn"`
	TokenOut   string `json:"tokenOut"`
	SwapAmount string `json:"swapAmount"`
	AmountOut  string `json:"amountOut"`
	Exchange   string `json:"exchange"`
	PoolType   string `json:"poolType"`
}

// HasRFQ reports whether any hop is filled by a request-for-quote market maker.
func (s RouteSummary) HasRFQ() bool {
	for _, path := range s.Route {
		for _, hop := range path {
			if strings.EqualFold(hop.PoolType, "rfq") || strings.Contains(strings.ToLower(hop.Exchange), "rfq") {
				return true
			}
		}
	}
	return false
}

// RouteRequest selects a route selling AmountIn (raw units) of TokenIn for TokenOut.
type RouteRequest struct {
	TokenIn  string
	TokenOut string
	AmountIn string
}

type Client struct {
	baseURL    string
	chainID    string
	clientID   string
	httpClient *http.Client
}

func NewClient(baseURL, chainID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chainID:    chainID,
		clientID:   "xscreener",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetRoute asks the aggregator for its best route. It fails on transport
// errors, non-200 statuses and any non-zero code.
func (c *Client) GetRoute(ctx context.Context, r RouteRequest) (*RouteSummary, error) {
	q := url.Values{}
	q.Set("tokenIn", r.TokenIn)
	q.Set("tokenOut", r.TokenOut)
	q.Set("amountIn", r.AmountIn)
	q.Set("saveGas", "false")
	q.Set("gasInclude", "true")
	endpoint := fmt.Sprintf("%s/%s/api/v1/routes?%s", c.baseURL, c.chainID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("kyberswap http %d: %s", resp.StatusCode, body)
	}

	var out RoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("kyberswap error %d: %s", out.Code, out.Message)
	}
	if out.Data == nil {
		return nil, fmt.Errorf("kyberswap: empty route data")
	}
	return &out.Data.RouteSummary, nil
}
