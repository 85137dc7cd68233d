package snapshot

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"xscreener/internal/quote"
)

// Sink receives the comparisons of each batch run, replacing what it held
// for the same symbols. No history is kept.
type Sink interface {
	Save(ctx context.Context, comparisons []quote.Comparison) error
}

// Reader serves the latest saved comparisons in run order.
type Reader interface {
	Latest(ctx context.Context) ([]quote.Comparison, error)
}

// Memory is the in-process latest snapshot, keyed by symbol.
type Memory struct {
	mu        sync.RWMutex
	order     []string
	data      map[string]quote.Comparison
	updatedAt int64
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]quote.Comparison)}
}

func (m *Memory) Save(_ context.Context, comparisons []quote.Comparison) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range comparisons {
		if _, ok := m.data[c.Symbol]; !ok {
			m.order = append(m.order, c.Symbol)
		}
		m.data[c.Symbol] = c
		if c.FetchedAt > m.updatedAt {
			m.updatedAt = c.FetchedAt
		}
	}
	return nil
}

func (m *Memory) Latest(_ context.Context) ([]quote.Comparison, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]quote.Comparison, 0, len(m.order))
	for _, sym := range m.order {
		out = append(out, m.data[sym])
	}
	return out, nil
}

// Get returns the latest comparison for one symbol.
func (m *Memory) Get(symbol string) (quote.Comparison, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.data[symbol]
	return c, ok
}

// UpdatedAt is the newest FetchedAt seen, 0 before the first save.
func (m *Memory) UpdatedAt() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updatedAt
}

// Multi writes to every sink. A failing sink is logged and does not stop
// the others; the joined error is returned.
type Multi struct {
	sinks  map[string]Sink
	names  []string
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: make(map[string]Sink), logger: logger.Named("snapshot")}
}

// Add registers a named sink. Sinks are written in registration order.
func (m *Multi) Add(name string, sink Sink) {
	if _, ok := m.sinks[name]; !ok {
		m.names = append(m.names, name)
	}
	m.sinks[name] = sink
}

func (m *Multi) Save(ctx context.Context, comparisons []quote.Comparison) error {
	var errs []error
	for _, name := range m.names {
		if err := m.sinks[name].Save(ctx, comparisons); err != nil {
			m.logger.Error("failed to save snapshot",
				zap.String("sink", name),
				zap.Int("count", len(comparisons)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
