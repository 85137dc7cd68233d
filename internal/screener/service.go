package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xscreener/config"
	"xscreener/internal/aggregator"
	"xscreener/internal/batch"
	"xscreener/internal/server"
	"xscreener/internal/snapshot"
	"xscreener/internal/venue"
	"xscreener/pkg/storage/postgres"
	"xscreener/pkg/storage/redis"

	"go.uber.org/zap"
)

// Service wires venues, the batch pipeline, snapshot stores and the API.
type Service struct {
	cfg        *config.Config
	logger     *zap.Logger
	Aggregator *aggregator.Aggregator
	Batch      *batch.Orchestrator
	Memory     *snapshot.Memory
	Hub        *server.Hub

	venues  venue.Set
	sinks   *snapshot.Multi
	closers []func() error
}

// New builds the pipeline. Postgres and Redis sinks are connected only when enabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	venues := venue.FromConfig(cfg.Venues, logger)
	logger.Info("venues configured",
		zap.Bool("reference", venues.Reference != nil),
		zap.Strings("venues", venues.Names()),
		zap.Strings("instruments", cfg.Keys()),
	)

	agg := aggregator.New(cfg.Instruments, venues, cfg.Scanner.MinSpreadPercent, logger)
	s := &Service{
		cfg:        cfg,
		logger:     logger,
		venues:     venues,
		Aggregator: agg,
		Batch:      batch.NewOrchestrator(agg, cfg.Scanner.InstrumentDelay, logger),
		Memory:     snapshot.NewMemory(),
		Hub:        server.NewHub(logger),
		sinks:      snapshot.NewMulti(logger),
	}
	s.sinks.Add("memory", s.Memory)

	if cfg.Postgres.Enabled {
		// Initialize PostgreSQL Client
		pg, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Environment)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		s.sinks.Add("postgres", pg)
		s.closers = append(s.closers, pg.Close)
	}

	if cfg.Redis.Enabled {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rs, err := redis.New(rctx, cfg.Redis)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.sinks.Add("redis", rs)
		s.closers = append(s.closers, rs.Close)
	}

	return s, nil
}

// Run serves the API and refreshes snapshots until ctx is cancelled or the
// listener fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	refresher := batch.NewRefresher(s.Batch, s.Aggregator.Keys, s.cfg.Scanner.RefreshInterval, s.sinks, s.logger, s.Hub)
	refresher.Start(ctx)
	go s.Hub.Run(ctx)

	deps := server.Deps{
		Comparer: s.Aggregator,
		Batch:    s.Batch,
		Snapshot: s.Memory,
		TopN:     s.cfg.Scanner.TopN,
	}
	if ms, ok := s.venues.Reference.(server.MarketStatus); ok {
		deps.MarketStatus = ms
	}
	srv := server.New(s.cfg.Server, deps, s.Hub, s.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	stop()
	refresher.Wait()
	return runErr
}

// Close releases store connections.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
