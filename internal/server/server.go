package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"xscreener/config"
)

// Server is the HTTP + websocket API of the screener.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New registers every route and wraps them in logging and CORS middleware.
// hub may be nil, in which case /ws is not served.
func New(cfg config.ServerConfig, deps Deps, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     NewHandler(cfg, deps, hub, logger),
		ReadTimeout: 15 * time.Second,
		// a live /prices run pauses between instruments
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(cfg config.ServerConfig, deps Deps, hub *Hub, logger *zap.Logger) http.Handler {
	h := &handlers{deps: deps, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /prices", h.allPrices)
	mux.HandleFunc("GET /prices/latest", h.latestPrices)
	mux.HandleFunc("GET /prices/{symbol}", h.symbolPrices)
	mux.HandleFunc("GET /opportunities", h.opportunities)
	mux.HandleFunc("GET /statistics", h.statistics)
	mux.HandleFunc("GET /market-status/{symbol}", h.marketStatus)
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var handler http.Handler = mux
	handler = logging(logger)(handler)
	handler = cors(cfg.CORSOrigins)(handler)
	return handler
}

// Start blocks until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
