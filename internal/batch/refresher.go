package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"xscreener/internal/quote"
	"xscreener/internal/snapshot"
)

// Publisher is notified with every completed snapshot.
type Publisher interface {
	Publish(comparisons []quote.Comparison)
}

// Refresher runs a batch at start and then on every interval, storing and
// publishing the result. A tick that arrives while a run is in progress is skipped.
type Refresher struct {
	orchestrator *Orchestrator
	keys         func() []string
	interval     time.Duration
	sink         snapshot.Sink
	publishers   []Publisher
	logger       *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

func NewRefresher(o *Orchestrator, keys func() []string, interval time.Duration, sink snapshot.Sink, logger *zap.Logger, publishers ...Publisher) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		orchestrator: o,
		keys:         keys,
		interval:     interval,
		sink:         sink,
		publishers:   publishers,
		logger:       logger.Named("refresher"),
	}
}

// Start launches the loop; it stops when ctx is cancelled. With a zero
// interval only the initial run happens.
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// Run immediately once at startup
		r.trigger(ctx)
		if r.interval <= 0 {
			return
		}

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.trigger(ctx)
			}
		}
	}()
}

// Wait blocks until the loop and any in-flight run have returned.
func (r *Refresher) Wait() {
	r.wg.Wait()
}

func (r *Refresher) trigger(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)
		r.RunOnce(ctx)
	}()
}

// RunOnce performs one batch run and hands the result to the sink and publishers.
func (r *Refresher) RunOnce(ctx context.Context) ([]quote.Comparison, error) {
	comparisons, err := r.orchestrator.FetchAll(ctx, r.keys())
	if err != nil && len(comparisons) == 0 {
		r.logger.Error("batch run failed", zap.Error(err))
		return nil, err
	}

	// Store even a partial run; the write itself must outlive cancellation.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if serr := r.sink.Save(saveCtx, comparisons); serr != nil {
		r.logger.Warn("snapshot partially saved", zap.Error(serr))
	}
	for _, p := range r.publishers {
		p.Publish(comparisons)
	}
	return comparisons, err
}
