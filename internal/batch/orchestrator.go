package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"xscreener/internal/quote"
)

// ErrNoInstruments is returned when a run is asked to cover nothing.
var ErrNoInstruments = errors.New("batch: no instruments to fetch")

// DefaultInstrumentDelay keeps a full run under the reference venue's free tier of 8 requests a minute.
const DefaultInstrumentDelay = 8 * time.Second

// Fetcher produces one instrument's comparison.
type Fetcher interface {
	FetchComparison(ctx context.Context, key string) (quote.Comparison, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Orchestrator fetches instruments one after another with a pause in between.
type Orchestrator struct {
	fetcher Fetcher
	delay   time.Duration
	sleep   Sleeper
	logger  *zap.Logger
}

type Option func(*Orchestrator)

// WithSleeper replaces the wall-clock pause, mostly for tests.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

func NewOrchestrator(fetcher Fetcher, delay time.Duration, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		fetcher: fetcher,
		delay:   delay,
		sleep:   sleepCtx,
		logger:  logger.Named("batch"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchAll returns the comparisons of every key that could be fetched, in key
// order. Failing keys are logged and skipped. On cancellation it returns what
// was collected so far together with the context error.
func (o *Orchestrator) FetchAll(ctx context.Context, keys []string) ([]quote.Comparison, error) {
	if len(keys) == 0 {
		return nil, ErrNoInstruments
	}

	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))
	started := time.Now()
	log.Info("batch run started", zap.Int("instruments", len(keys)))

	out := make([]quote.Comparison, 0, len(keys))
	for i, key := range keys {
		c, err := o.fetcher.FetchComparison(ctx, key)
		if err != nil {
			log.Error("failed to fetch comparison", zap.String("key", key), zap.Error(err))
		} else {
			out = append(out, c)
		}

		if i == len(keys)-1 {
			break
		}
		if err := o.sleep(ctx, o.delay); err != nil {
			log.Warn("batch run interrupted", zap.Int("fetched", len(out)), zap.Error(err))
			return out, err
		}
	}

	log.Info("batch run finished",
		zap.Int("fetched", len(out)),
		zap.Int("skipped", len(keys)-len(out)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}
