package arbitrage

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"xscreener/internal/quote"
)

var detectedAt = time.UnixMilli(1735000000000)

func q(t *testing.T, venue string, price float64) *quote.Quote {
	t.Helper()
	v, err := quote.New("X", venue, quote.ClassExchange, price, 1)
	if err != nil {
		t.Fatalf("quote.New(%v): %v", price, err)
	}
	return &v
}

func comparison(reference *quote.Quote, venues ...quote.VenueSlot) quote.Comparison {
	return quote.Comparison{Symbol: "X", StockSymbol: "X", Reference: reference, Venues: venues}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// go test -v --run TestDetectScenario
func TestDetectScenario(t *testing.T) {
	c := comparison(q(t, "twelvedata", 100),
		quote.VenueSlot{Venue: "a", Quote: q(t, "a", 102)},
		quote.VenueSlot{Venue: "b", Quote: q(t, "b", 99)},
	)

	opps := Detect(c, DefaultMinSpreadPercent, detectedAt)
	want := []struct {
		buy, sell      string
		buyPx, sellPx  float64
		spread, profit float64
	}{
		{"b", "a", 99, 102, 3.03, 3},
		{quote.ReferenceLabel, "a", 100, 102, 2.00, 2},
		{"b", quote.ReferenceLabel, 99, 100, 1.01, 1},
	}
	if len(opps) != len(want) {
		t.Fatalf("got %d opportunities, want %d: %+v", len(opps), len(want), opps)
	}
	for i, w := range want {
		o := opps[i]
		if o.BuyFrom != w.buy || o.SellTo != w.sell || o.BuyPrice != w.buyPx || o.SellPrice != w.sellPx {
			t.Errorf("opportunity %d: got %+v", i, o)
		}
		if round2(o.SpreadPercent) != w.spread || round2(o.ProfitPerUnit) != w.profit {
			t.Errorf("opportunity %d: spread %.4f profit %.4f, want %.2f / %.2f", i, o.SpreadPercent, o.ProfitPerUnit, w.spread, w.profit)
		}
		if o.DetectedAt != detectedAt.UnixMilli() || o.Symbol != "X" {
			t.Errorf("opportunity %d: stamp %d symbol %s", i, o.DetectedAt, o.Symbol)
		}
	}
}

// go test -v --run TestDetectOrderIndependent
func TestDetectOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		a := 1 + rng.Float64()*500
		b := 1 + rng.Float64()*500
		if a == b {
			continue
		}

		ab := Detect(comparison(nil,
			quote.VenueSlot{Venue: "p", Quote: q(t, "p", a)},
			quote.VenueSlot{Venue: "r", Quote: q(t, "r", b)},
		), 0, detectedAt)
		ba := Detect(comparison(nil,
			quote.VenueSlot{Venue: "r", Quote: q(t, "r", b)},
			quote.VenueSlot{Venue: "p", Quote: q(t, "p", a)},
		), 0, detectedAt)

		if len(ab) != 1 || len(ba) != 1 {
			t.Fatalf("a=%v b=%v: got %d and %d opportunities", a, b, len(ab), len(ba))
		}
		lo, hi := math.Min(a, b), math.Max(a, b)
		for _, o := range []quote.Opportunity{ab[0], ba[0]} {
			if o.BuyPrice != lo || o.SellPrice != hi {
				t.Errorf("a=%v b=%v: buy %v sell %v", a, b, o.BuyPrice, o.SellPrice)
			}
			if want := (hi - lo) / lo * 100; o.SpreadPercent != want {
				t.Errorf("a=%v b=%v: spread %v, want %v", a, b, o.SpreadPercent, want)
			}
			if o.ProfitPerUnit != hi-lo {
				t.Errorf("a=%v b=%v: profit %v", a, b, o.ProfitPerUnit)
			}
		}
		if ab[0] != ba[0] {
			t.Errorf("a=%v b=%v: order dependent result %+v vs %+v", a, b, ab[0], ba[0])
		}
	}
}

// go test -v --run TestDetectThresholdAndOrder
func TestDetectThresholdAndOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n < 100; n++ {
		slots := make([]quote.VenueSlot, 2+rng.Intn(5))
		for i := range slots {
			name := string(rune('a' + i))
			slots[i] = quote.VenueSlot{Venue: name, Quote: q(t, name, 95+rng.Float64()*10)}
		}
		c := comparison(nil, slots...)
		minSpread := rng.Float64() * 5

		opps := Detect(c, minSpread, detectedAt)
		kept := make(map[[2]string]bool, len(opps))
		for i, o := range opps {
			if o.SpreadPercent < minSpread {
				t.Errorf("spread %v below threshold %v", o.SpreadPercent, minSpread)
			}
			if o.BuyPrice > o.SellPrice {
				t.Errorf("buy %v above sell %v", o.BuyPrice, o.SellPrice)
			}
			if i > 0 && opps[i-1].SpreadPercent < o.SpreadPercent {
				t.Errorf("not sorted at %d: %v < %v", i, opps[i-1].SpreadPercent, o.SpreadPercent)
			}
			kept[[2]string{o.BuyFrom, o.SellTo}] = true
		}

		// no omitted pair reaches the threshold
		present := c.Present()
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				lo, hi := present[i], present[j]
				if hi.Quote.Price < lo.Quote.Price {
					lo, hi = hi, lo
				}
				spread := (hi.Quote.Price - lo.Quote.Price) / lo.Quote.Price * 100
				if spread >= minSpread && !kept[[2]string{lo.Label, hi.Label}] {
					t.Errorf("pair %s/%s with spread %v omitted (min %v)", lo.Label, hi.Label, spread, minSpread)
				}
			}
		}
	}
}

// go test -v --run TestDetectTooFewQuotes
func TestDetectTooFewQuotes(t *testing.T) {
	cases := map[string]quote.Comparison{
		"none":           comparison(nil, quote.VenueSlot{Venue: "a"}, quote.VenueSlot{Venue: "b"}),
		"reference only": comparison(q(t, "twelvedata", 100), quote.VenueSlot{Venue: "a"}),
		"one venue":      comparison(nil, quote.VenueSlot{Venue: "a", Quote: q(t, "a", 100)}, quote.VenueSlot{Venue: "b"}),
	}
	for name, c := range cases {
		if opps := Detect(c, 0, detectedAt); len(opps) != 0 {
			t.Errorf("%s: got %d opportunities", name, len(opps))
		}
	}
}

// go test -v --run TestSelectBest
func TestSelectBest(t *testing.T) {
	mk := func(spreads ...float64) quote.Comparison {
		var c quote.Comparison
		for _, s := range spreads {
			c.Opportunities = append(c.Opportunities, quote.Opportunity{SpreadPercent: s})
		}
		return c
	}
	comparisons := []quote.Comparison{mk(3, 1), mk(), mk(5, 2, 0.7)}

	for _, k := range []int{0, 1, 3, 5, 10} {
		got := SelectBest(comparisons, k)
		want := k
		if want > 5 {
			want = 5
		}
		if len(got) != want {
			t.Errorf("k=%d: got %d items, want %d", k, len(got), want)
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].SpreadPercent < got[i].SpreadPercent {
				t.Errorf("k=%d: not sorted: %+v", k, got)
			}
		}
	}

	top := SelectBest(comparisons, 2)
	if top[0].SpreadPercent != 5 || top[1].SpreadPercent != 3 {
		t.Errorf("top 2: got %+v", top)
	}
	if got := SelectBest(comparisons, -1); got == nil || len(got) != 0 {
		t.Errorf("negative topN: got %v", got)
	}
}

// go test -v --run TestStatistics
func TestStatistics(t *testing.T) {
	c := comparison(q(t, "twelvedata", 100),
		quote.VenueSlot{Venue: "a", Quote: q(t, "a", 102)},
		quote.VenueSlot{Venue: "b", Quote: q(t, "b", 99)},
		quote.VenueSlot{Venue: "c"},
	)
	s, ok := Statistics(c)
	if !ok {
		t.Fatal("expected stats")
	}
	if s.Min != 99 || s.Max != 102 || s.Count != 3 || round2(s.Avg) != 100.33 || round2(s.SpreadPercent) != 3.03 {
		t.Errorf("unexpected stats: %+v", s)
	}

	if _, ok := Statistics(comparison(nil, quote.VenueSlot{Venue: "a"})); ok {
		t.Error("empty comparison should have no stats")
	}
}
