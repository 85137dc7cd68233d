package kraken

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

// ErrUnknownPair is returned when Kraken answers without an error but with no
// ticker data, or with an "Unknown asset pair" error.
var ErrUnknownPair = errors.New("kraken: unknown asset pair")

// TickerResponse is the /0/public/Ticker envelope. Result is keyed by
// Kraken's canonical pair name, which may differ from the requested one.
type TickerResponse struct {
	Error  []string               `json:"error"`
	Result map[string]TickerEntry `json:"result"`
}

// TickerEntry uses Kraken's one-letter fields; every number is a string.
type TickerEntry struct {
	Ask    []string `json:"a"` // [price, whole lot volume, lot volume]
	Bid    []string `json:"b"` // [price, whole lot volume, lot volume]
	Last   []string `json:"c"` // [price, lot volume]
	Volume []string `json:"v"` // [today, last 24 hours]
	VWAP   []string `json:"p"` // [today, last 24 hours]
	Low    []string `json:"l"`
	High   []string `json:"h"`
	Open   string   `json:"o"`
}

// Ticker is a resolved ticker along with the pair name Kraken used.
type Ticker struct {
	Pair string
	TickerEntry
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetTicker fetches the ticker of a single pair name exactly as given.
func (c *Client) GetTicker(ctx context.Context, pair string) (*Ticker, error) {
	q := url.Values{}
	q.Set("pair", pair)
	endpoint := c.baseURL + "/0/public/Ticker?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("kraken http %d: %s", resp.StatusCode, body)
	}

	var out TickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(out.Error) > 0 {
		msg := strings.Join(out.Error, "; ")
		if strings.Contains(msg, "Unknown asset pair") {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPair, pair)
		}
		return nil, fmt.Errorf("kraken error: %s", msg)
	}

	for name, entry := range out.Result {
		return &Ticker{Pair: name, TickerEntry: entry}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPair, pair)
}

// PairVariants lists the historically valid spellings of a USD pair in the
// order they should be tried: as configured, slash-separated, X-prefixed.
func PairVariants(pair string) []string {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return nil
	}

	variants := []string{pair}
	if i := strings.LastIndex(pair, "USD"); i > 0 && !strings.Contains(pair, "/") {
		variants = append(variants, pair[:i]+"/"+pair[i:])
	}
	variants = append(variants, "X"+pair)
	return variants
}
