package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// VenueClass groups venues by how they produce a price.
type VenueClass string

const (
	ClassExchange   VenueClass = "EXCHANGE"   // centralized order book, last trade
	ClassAggregator VenueClass = "AGGREGATOR" // DEX aggregator, simulated swap
	ClassReference  VenueClass = "REFERENCE"  // traditional stock quote
)

// ReferenceLabel is the venue label the reference quote carries in opportunities.
const ReferenceLabel = "reference"

var ErrInvalidPrice = errors.New("quote: price must be positive and finite")

// Quote is one observed price at one venue for one instrument.
// Build it with New; a Quote never carries a zero or negative price.
type Quote struct {
	Symbol    string     `json:"symbol"`
	Price     float64    `json:"price"`
	Timestamp int64      `json:"timestamp"` // unix ms
	Venue     string     `json:"venue"`     // venue identifier, e.g. "bybit"
	Source    string     `json:"source"`    // display label, e.g. "Jupiter (Meteora)"
	Class     VenueClass `json:"class"`
	Volume24h *float64   `json:"volume24h,omitempty"`
	Liquidity *float64   `json:"liquidity,omitempty"`
	IsRFQ     bool       `json:"isRFQ,omitempty"`
}

type Option func(*Quote)

func WithVolume24h(v float64) Option {
	return func(q *Quote) {
		if isFinite(v) {
			q.Volume24h = &v
		}
	}
}

func WithLiquidity(v float64) Option {
	return func(q *Quote) {
		if isFinite(v) {
			q.Liquidity = &v
		}
	}
}

func WithRFQ(rfq bool) Option {
	return func(q *Quote) { q.IsRFQ = rfq }
}

func WithSource(source string) Option {
	return func(q *Quote) {
		if source != "" {
			q.Source = source
		}
	}
}

// New validates price and builds a Quote. Source defaults to the venue id.
func New(symbol, venue string, class VenueClass, price float64, ts int64, opts ...Option) (Quote, error) {
	if !isFinite(price) || price <= 0 {
		return Quote{}, fmt.Errorf("%w: %s@%s got %v", ErrInvalidPrice, symbol, venue, price)
	}
	q := Quote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: ts,
		Venue:     venue,
		Source:    venue,
		Class:     class,
	}
	for _, opt := range opts {
		opt(&q)
	}
	return q, nil
}

// UnmarshalJSON applies the same price check as New, so quotes read back
// from a store never carry a zero or negative price.
func (q *Quote) UnmarshalJSON(data []byte) error {
	type plain Quote
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if !isFinite(p.Price) || p.Price <= 0 {
		return fmt.Errorf("%w: %s@%s got %v", ErrInvalidPrice, p.Symbol, p.Venue, p.Price)
	}
	*q = Quote(p)
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
