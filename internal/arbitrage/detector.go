package arbitrage

import (
	"math"
	"sort"
	"time"

	"xscreener/internal/quote"
)

const (
	// DefaultMinSpreadPercent drops spreads too thin to cover fees.
	DefaultMinSpreadPercent = 0.5
	DefaultTopN             = 10
)

// Detect compares every pair of present quotes and keeps those whose spread
// reaches minSpreadPercent. Each opportunity buys at the lower price and sells
// at the higher; the spread is relative to the buy price. Results are sorted
// by spread, largest first; equal spreads keep pair order.
func Detect(c quote.Comparison, minSpreadPercent float64, now time.Time) []quote.Opportunity {
	present := c.Present()
	ts := now.UnixMilli()

	opps := make([]quote.Opportunity, 0)
	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			a, b := present[i], present[j]

			buy, sell := a, b
			if b.Quote.Price < a.Quote.Price {
				buy, sell = b, a
			}

			spread := (sell.Quote.Price - buy.Quote.Price) / buy.Quote.Price * 100
			if spread < minSpreadPercent {
				continue
			}

			opps = append(opps, quote.Opportunity{
				Symbol:        c.Symbol,
				BuyFrom:       buy.Label,
				SellTo:        sell.Label,
				BuyPrice:      buy.Quote.Price,
				SellPrice:     sell.Quote.Price,
				SpreadPercent: spread,
				ProfitPerUnit: sell.Quote.Price - buy.Quote.Price,
				DetectedAt:    ts,
			})
		}
	}

	sortBySpread(opps)
	return opps
}

// SelectBest flattens the opportunities of every comparison and returns the
// topN largest spreads.
func SelectBest(comparisons []quote.Comparison, topN int) []quote.Opportunity {
	if topN <= 0 {
		return []quote.Opportunity{}
	}

	var all []quote.Opportunity
	for _, c := range comparisons {
		all = append(all, c.Opportunities...)
	}
	sortBySpread(all)

	if len(all) > topN {
		all = all[:topN]
	}
	if all == nil {
		all = []quote.Opportunity{}
	}
	return all
}

func sortBySpread(opps []quote.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].SpreadPercent > opps[j].SpreadPercent
	})
}

// Stats summarizes the present prices of one comparison.
type Stats struct {
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Avg           float64 `json:"avg"`
	SpreadPercent float64 `json:"spread"` // (max - min) / min * 100
	Count         int     `json:"count"`
}

// Statistics returns false when the comparison has no quotes.
func Statistics(c quote.Comparison) (Stats, bool) {
	present := c.Present()
	if len(present) == 0 {
		return Stats{}, false
	}

	s := Stats{Min: math.Inf(1), Max: math.Inf(-1), Count: len(present)}
	var sum float64
	for _, p := range present {
		s.Min = math.Min(s.Min, p.Quote.Price)
		s.Max = math.Max(s.Max, p.Quote.Price)
		sum += p.Quote.Price
	}
	s.Avg = sum / float64(len(present))
	s.SpreadPercent = (s.Max - s.Min) / s.Min * 100
	return s, true
}
