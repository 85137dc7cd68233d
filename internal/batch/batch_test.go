package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"xscreener/config"
	"xscreener/internal/aggregator"
	"xscreener/internal/quote"
	"xscreener/internal/snapshot"
	"xscreener/internal/venue"
)

type fixedAdapter struct {
	name  string
	price float64
}

func (f fixedAdapter) Name() string            { return f.name }
func (f fixedAdapter) Class() quote.VenueClass { return quote.ClassExchange }
func (f fixedAdapter) FetchQuote(_ context.Context, inst config.Instrument) (quote.Quote, bool) {
	q, err := quote.New(inst.Symbol, f.name, quote.ClassExchange, f.price, 1)
	return q, err == nil
}

func newAggregator() *aggregator.Aggregator {
	instruments := []config.Instrument{
		{Key: "TSLA", Symbol: "TSLAx", StockSymbol: "TSLA"},
		{Key: "SPY", Symbol: "SPYx", StockSymbol: "SPY"},
	}
	set := venue.Set{Venues: []venue.Adapter{fixedAdapter{"a", 100}, fixedAdapter{"b", 101}}}
	return aggregator.New(instruments, set, 0.5, nil)
}

// countingSleeper records every requested pause without waiting.
type countingSleeper struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *countingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *countingSleeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pauses)
}

// go test -v --run TestFetchAllSkipsUnknown
func TestFetchAllSkipsUnknown(t *testing.T) {
	sleeper := &countingSleeper{}
	o := NewOrchestrator(newAggregator(), 8*time.Second, nil, WithSleeper(sleeper.sleep))

	got, err := o.FetchAll(context.Background(), []string{"TSLA", "NVDA", "SPY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "TSLAx" || got[1].Symbol != "SPYx" {
		t.Fatalf("got %+v, want TSLAx and SPYx", got)
	}
	if sleeper.count() != 2 {
		t.Errorf("pauses: got %d, want 2", sleeper.count())
	}
	for _, d := range sleeper.pauses {
		if d != 8*time.Second {
			t.Errorf("pause: got %v", d)
		}
	}
}

// go test -v --run TestFetchAllEmpty
func TestFetchAllEmpty(t *testing.T) {
	o := NewOrchestrator(newAggregator(), time.Second, nil)
	if _, err := o.FetchAll(context.Background(), nil); !errors.Is(err, ErrNoInstruments) {
		t.Errorf("got %v, want ErrNoInstruments", err)
	}
}

// go test -v --run TestFetchAllSingleNoDelay
func TestFetchAllSingleNoDelay(t *testing.T) {
	sleeper := &countingSleeper{}
	o := NewOrchestrator(newAggregator(), time.Second, nil, WithSleeper(sleeper.sleep))
	got, err := o.FetchAll(context.Background(), []string{"SPY"})
	if err != nil || len(got) != 1 {
		t.Fatalf("got %d comparisons, err %v", len(got), err)
	}
	if sleeper.count() != 0 {
		t.Errorf("single instrument paused %d times", sleeper.count())
	}
}

// go test -v --run TestFetchAllCancelled
func TestFetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := NewOrchestrator(newAggregator(), time.Hour, nil, WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}))

	got, err := o.FetchAll(ctx, []string{"TSLA", "SPY"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if len(got) != 1 || got[0].Symbol != "TSLAx" {
		t.Errorf("partial result: got %+v", got)
	}
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls [][]quote.Comparison
}

func (p *recordingPublisher) Publish(c []quote.Comparison) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
}

// go test -v --run TestRefresherRunOnce
func TestRefresherRunOnce(t *testing.T) {
	agg := newAggregator()
	o := NewOrchestrator(agg, 0, nil)
	mem := snapshot.NewMemory()
	pub := &recordingPublisher{}

	r := NewRefresher(o, agg.Keys, time.Minute, mem, nil, pub)
	got, err := r.RunOnce(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("got %d comparisons, err %v", len(got), err)
	}

	latest, _ := mem.Latest(context.Background())
	if len(latest) != 2 {
		t.Errorf("stored %d comparisons", len(latest))
	}
	if len(pub.calls) != 1 || len(pub.calls[0]) != 2 {
		t.Errorf("publisher calls: %+v", pub.calls)
	}
	if len(latest[0].Opportunities) != 1 {
		t.Errorf("opportunities: got %+v", latest[0].Opportunities)
	}
}

// go test -v --run TestRefresherStart
func TestRefresherStart(t *testing.T) {
	agg := newAggregator()
	mem := snapshot.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRefresher(NewOrchestrator(agg, 0, nil), agg.Keys, 0, mem, nil)
	r.Start(ctx)

	deadline := time.After(2 * time.Second)
	for {
		if latest, _ := mem.Latest(ctx); len(latest) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial run did not store a snapshot")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	r.Wait()
}

// go test -v --run TestRefresherNoKeys
func TestRefresherNoKeys(t *testing.T) {
	r := NewRefresher(NewOrchestrator(newAggregator(), 0, nil), func() []string { return nil }, 0, snapshot.NewMemory(), nil)
	if _, err := r.RunOnce(context.Background()); !errors.Is(err, ErrNoInstruments) {
		t.Errorf("got %v, want ErrNoInstruments", err)
	}
}
