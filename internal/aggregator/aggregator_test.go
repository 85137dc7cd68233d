package aggregator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xscreener/config"
	"xscreener/internal/quote"
	"xscreener/internal/venue"
)

// fakeAdapter returns a fixed price, or nothing when price is 0.
type fakeAdapter struct {
	name  string
	class quote.VenueClass
	price float64
	delay time.Duration
}

func (f fakeAdapter) Name() string            { return f.name }
func (f fakeAdapter) Class() quote.VenueClass { return f.class }

func (f fakeAdapter) FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return quote.Quote{}, false
		}
	}
	q, err := quote.New(inst.Symbol, f.name, f.class, f.price, time.Now().UnixMilli())
	return q, err == nil
}

var instruments = []config.Instrument{
	{Key: "TSLA", Symbol: "TSLAx", StockSymbol: "TSLA"},
	{Key: "NVDA", Symbol: "NVDAx", StockSymbol: "NVDA"},
}

// go test -v --run TestFetchComparison
func TestFetchComparison(t *testing.T) {
	set := venue.Set{
		Reference: fakeAdapter{name: "twelvedata", class: quote.ClassReference, price: 100, delay: 20 * time.Millisecond},
		Venues: []venue.Adapter{
			fakeAdapter{name: "a", class: quote.ClassExchange, price: 102, delay: 30 * time.Millisecond},
			fakeAdapter{name: "b", class: quote.ClassAggregator, price: 99},
			fakeAdapter{name: "c", class: quote.ClassAggregator},
		},
	}
	agg := New(instruments, set, 0.5, nil)

	c, err := agg.FetchComparison(context.Background(), "tsla")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Symbol != "TSLAx" || c.StockSymbol != "TSLA" {
		t.Errorf("symbols: got %s / %s", c.Symbol, c.StockSymbol)
	}
	if c.Reference == nil || c.Reference.Price != 100 {
		t.Errorf("reference: got %+v", c.Reference)
	}
	if len(c.Venues) != 3 {
		t.Fatalf("slots: got %d, want 3", len(c.Venues))
	}
	for i, name := range []string{"a", "b", "c"} {
		if c.Venues[i].Venue != name {
			t.Errorf("slot %d: got %s, want %s", i, c.Venues[i].Venue, name)
		}
	}
	if c.Quote("c") != nil {
		t.Error("venue c should be absent")
	}
	if len(c.Opportunities) != 3 || c.Opportunities[0].BuyFrom != "b" || c.Opportunities[0].SellTo != "a" {
		t.Errorf("opportunities: got %+v", c.Opportunities)
	}
	if c.FetchedAt == 0 {
		t.Error("fetchedAt not stamped")
	}
}

// go test -v --run TestFetchComparisonUnknown
func TestFetchComparisonUnknown(t *testing.T) {
	agg := New(instruments, venue.Set{}, 0.5, nil)
	_, err := agg.FetchComparison(context.Background(), "MSFT")
	if !errors.Is(err, ErrUnknownInstrument) {
		t.Errorf("got %v, want ErrUnknownInstrument", err)
	}

	keys := agg.Keys()
	if len(keys) != 2 || keys[0] != "TSLA" || keys[1] != "NVDA" {
		t.Errorf("keys: got %v", keys)
	}
}

// go test -v --run TestMalformedVenueStillCompares
func TestMalformedVenueStillCompares(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode": 0, "result": {"list": [{"lastPr`))
	}))
	defer srv.Close()

	broken := venue.NewBybit(config.VenueConfig{Enabled: true, BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	set := venue.Set{
		Venues: []venue.Adapter{
			broken,
			fakeAdapter{name: "b", class: quote.ClassAggregator, price: 250},
			fakeAdapter{name: "c", class: quote.ClassAggregator, price: 252},
		},
	}
	inst := []config.Instrument{{Key: "TSLA", Symbol: "TSLAx", StockSymbol: "TSLA", Bybit: "TSLAXUSDT"}}

	c, err := New(inst, set, 0.5, nil).FetchComparison(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Venues) != 3 || c.Venues[0].Venue != venue.NameBybit || c.Venues[0].Quote != nil {
		t.Errorf("bybit slot should exist and be empty: %+v", c.Venues)
	}
	if len(c.Present()) != 2 || len(c.Opportunities) != 1 {
		t.Errorf("got %d quotes and %d opportunities", len(c.Present()), len(c.Opportunities))
	}
}

// go test -v --run TestSlowVenueDoesNotBlockSiblings
func TestSlowVenueDoesNotBlockSiblings(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.Write([]byte(`{"retCode": 0, "result": {"list": [{"lastPrice": "251"}]}}`))
	}))
	defer slow.Close()

	hanging := venue.NewBybit(config.VenueConfig{Enabled: true, BaseURL: slow.URL, Timeout: 150 * time.Millisecond}, nil)
	set := venue.Set{
		Venues: []venue.Adapter{
			hanging,
			fakeAdapter{name: "b", class: quote.ClassAggregator, price: 250},
		},
	}
	inst := []config.Instrument{{Key: "TSLA", Symbol: "TSLAx", StockSymbol: "TSLA", Bybit: "TSLAXUSDT"}}

	start := time.Now()
	c, err := New(inst, set, 0.5, nil).FetchComparison(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("slow venue held the comparison for %s", elapsed)
	}
	if c.Quote(venue.NameBybit) != nil {
		t.Error("timed out venue should be absent")
	}
	if q := c.Quote("b"); q == nil || q.Price != 250 {
		t.Errorf("healthy venue: got %+v", q)
	}
}
