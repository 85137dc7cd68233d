package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"xscreener/internal/quote"
)

// go test -v --run TestMemory
func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if got, _ := m.Latest(ctx); len(got) != 0 {
		t.Fatalf("new store not empty: %v", got)
	}

	m.Save(ctx, []quote.Comparison{
		{Symbol: "TSLAx", FetchedAt: 10},
		{Symbol: "NVDAx", FetchedAt: 11},
	})
	m.Save(ctx, []quote.Comparison{{Symbol: "TSLAx", FetchedAt: 20}})

	got, _ := m.Latest(ctx)
	if len(got) != 2 || got[0].Symbol != "TSLAx" || got[1].Symbol != "NVDAx" {
		t.Fatalf("latest: got %+v", got)
	}
	if got[0].FetchedAt != 20 {
		t.Errorf("TSLAx not overwritten: %d", got[0].FetchedAt)
	}
	if m.UpdatedAt() != 20 {
		t.Errorf("updatedAt: got %d", m.UpdatedAt())
	}
	if _, ok := m.Get("SPYx"); ok {
		t.Error("unexpected SPYx")
	}
}

// go test -v --run TestMemoryConcurrent
func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Save(ctx, []quote.Comparison{{Symbol: "TSLAx", FetchedAt: int64(i)}})
			m.Latest(ctx)
		}()
	}
	wg.Wait()

	if got, _ := m.Latest(ctx); len(got) != 1 {
		t.Errorf("got %d comparisons, want 1", len(got))
	}
}

type failingSink struct{ err error }

func (f failingSink) Save(context.Context, []quote.Comparison) error { return f.err }

// go test -v --run TestMulti
func TestMulti(t *testing.T) {
	boom := errors.New("redis down")
	mem := NewMemory()

	multi := NewMulti(nil)
	multi.Add("redis", failingSink{err: boom})
	multi.Add("memory", mem)

	err := multi.Save(context.Background(), []quote.Comparison{{Symbol: "SPYx"}})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want joined redis error", err)
	}
	if _, ok := mem.Get("SPYx"); !ok {
		t.Error("memory sink skipped after failing sink")
	}
}
