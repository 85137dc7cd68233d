package bybit

import "encoding/json"

// Category values accepted by the v5 market endpoints.
const (
	CategorySpot    = "spot"
	CategoryLinear  = "linear"
	CategoryInverse = "inverse"
)

// BybitResponse represents a generic response from Bybit's V5 REST API.
// This structure covers the standard response envelope used across all endpoints.
type BybitResponse struct {
	RetCode    int                    `json:"retCode"`    // 0 means success; non-zero indicates an error code
	RetMsg     string                 `json:"retMsg"`     // Human-readable message describing the result or error
	Result     json.RawMessage        `json:"result"`     // Delay decoding // Main response payload (varies per endpoint)
	RetExtInfo map[string]interface{} `json:"retExtInfo"` // Optional extra info (e.g. rate limits, error hints)
	Time       int64                  `json:"time"`       // Server timestamp (in milliseconds since epoch)
}

type TickerListResponse struct {
	Category string   `json:"category"` // e.g., "spot"
	List     []Ticker `json:"list"`
}

// Ticker is one row of /v5/market/tickers. Numbers arrive as strings.
type Ticker struct {
	Symbol       string `json:"symbol"`       // e.g., "TSLAXUSDT"
	LastPrice    string `json:"lastPrice"`    // last traded price
	PrevPrice24h string `json:"prevPrice24h"` // price 24h ago
	Price24hPcnt string `json:"price24hPcnt"` // 24h change, fraction
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
	Turnover24h  string `json:"turnover24h"` // quote-asset volume
	Volume24h    string `json:"volume24h"`   // base-asset volume
}

// TickerResult is a ticker together with the server time it was served at.
type TickerResult struct {
	Ticker
	ServerTime int64 // ms
}
