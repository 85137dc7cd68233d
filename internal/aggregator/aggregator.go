package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"xscreener/config"
	"xscreener/internal/arbitrage"
	"xscreener/internal/quote"
	"xscreener/internal/venue"
)

// ErrUnknownInstrument is returned for keys that are not configured.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Aggregator collects one Comparison per instrument by querying every venue at once.
type Aggregator struct {
	instruments []config.Instrument
	byKey       map[string]config.Instrument
	venues      venue.Set
	minSpread   float64
	now         func() time.Time
	logger      *zap.Logger
}

func New(instruments []config.Instrument, venues venue.Set, minSpreadPercent float64, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	byKey := make(map[string]config.Instrument, len(instruments))
	for _, inst := range instruments {
		byKey[strings.ToUpper(inst.Key)] = inst
	}
	return &Aggregator{
		instruments: instruments,
		byKey:       byKey,
		venues:      venues,
		minSpread:   minSpreadPercent,
		now:         time.Now,
		logger:      logger.Named("aggregator"),
	}
}

// Keys returns instrument keys in configured order.
func (a *Aggregator) Keys() []string {
	keys := make([]string, 0, len(a.instruments))
	for _, inst := range a.instruments {
		keys = append(keys, inst.Key)
	}
	return keys
}

// Instrument looks up a configured instrument, case-insensitively.
func (a *Aggregator) Instrument(key string) (config.Instrument, bool) {
	inst, ok := a.byKey[strings.ToUpper(strings.TrimSpace(key))]
	return inst, ok
}

// FetchComparison queries the reference and every venue concurrently and
// returns once all of them have answered or given up.
func (a *Aggregator) FetchComparison(ctx context.Context, key string) (quote.Comparison, error) {
	inst, ok := a.Instrument(key)
	if !ok {
		return quote.Comparison{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, key)
	}

	// One slot per goroutine; nothing else is shared while fetching.
	var reference *quote.Quote
	slots := make(quote.Slots, len(a.venues.Venues))

	g, gctx := errgroup.WithContext(ctx)
	if a.venues.Reference != nil {
		g.Go(func() error {
			if q, ok := a.venues.Reference.FetchQuote(gctx, inst); ok {
				reference = &q
			}
			return nil
		})
	}
	for i, adapter := range a.venues.Venues {
		slots[i].Venue = adapter.Name()
		g.Go(func() error {
			if q, ok := adapter.FetchQuote(gctx, inst); ok {
				slots[i].Quote = &q
			}
			return nil
		})
	}
	// Adapters never fail, so Wait only synchronizes.
	_ = g.Wait()

	now := a.now()
	c := quote.Comparison{
		Symbol:      inst.Symbol,
		StockSymbol: inst.StockSymbol,
		Reference:   reference,
		Venues:      slots,
		FetchedAt:   now.UnixMilli(),
	}
	c.Opportunities = arbitrage.Detect(c, a.minSpread, now)

	a.logger.Debug("comparison fetched",
		zap.String("symbol", inst.Symbol),
		zap.Int("quotes", len(c.Present())),
		zap.Int("opportunities", len(c.Opportunities)),
	)
	return c, nil
}
