package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"xscreener/internal/aggregator"
	"xscreener/internal/arbitrage"
	"xscreener/internal/quote"
	"xscreener/internal/snapshot"
)

// Comparer fetches a live comparison for one instrument.
type Comparer interface {
	FetchComparison(ctx context.Context, key string) (quote.Comparison, error)
	Keys() []string
}

// BatchFetcher runs a paced fetch over many instruments.
type BatchFetcher interface {
	FetchAll(ctx context.Context, keys []string) ([]quote.Comparison, error)
}

// MarketStatus reports whether the underlying stock's market is open.
type MarketStatus interface {
	MarketOpen(ctx context.Context, stockSymbol string) (bool, error)
}

// Deps are the services behind the HTTP handlers. MarketStatus may be nil.
type Deps struct {
	Comparer     Comparer
	Batch        BatchFetcher
	Snapshot     snapshot.Reader
	MarketStatus MarketStatus
	TopN         int
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// health responds with a simple status.
// GET /health
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}

// allPrices runs a live batch over every configured instrument.
// GET /prices
func (h *handlers) allPrices(w http.ResponseWriter, r *http.Request) {
	comparisons, err := h.deps.Batch.FetchAll(r.Context(), h.deps.Comparer.Keys())
	if err != nil {
		h.logger.Error("failed to fetch prices", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}
	writeData(w, comparisons)
}

// symbolPrices fetches one instrument live.
// GET /prices/{symbol}
func (h *handlers) symbolPrices(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	c, err := h.deps.Comparer.FetchComparison(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, aggregator.ErrUnknownInstrument) {
			writeError(w, http.StatusNotFound, "Token "+symbol+" not found")
			return
		}
		h.logger.Error("failed to fetch price", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch price for "+symbol)
		return
	}
	writeData(w, c)
}

// latestPrices serves the stored snapshot without touching any venue.
// GET /prices/latest
func (h *handlers) latestPrices(w http.ResponseWriter, r *http.Request) {
	comparisons, ok := h.latest(w, r)
	if !ok {
		return
	}
	writeData(w, comparisons)
}

// opportunities ranks the stored snapshot's opportunities.
// GET /opportunities?top=N
func (h *handlers) opportunities(w http.ResponseWriter, r *http.Request) {
	top := h.deps.TopN
	if top <= 0 {
		top = arbitrage.DefaultTopN
	}
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}

	comparisons, ok := h.latest(w, r)
	if !ok {
		return
	}
	writeData(w, arbitrage.SelectBest(comparisons, top))
}

type statisticsEntry struct {
	Symbol string `json:"symbol"`
	arbitrage.Stats
}

// statistics summarizes prices of the stored snapshot per instrument.
// GET /statistics
func (h *handlers) statistics(w http.ResponseWriter, r *http.Request) {
	comparisons, ok := h.latest(w, r)
	if !ok {
		return
	}
	out := make([]statisticsEntry, 0, len(comparisons))
	for _, c := range comparisons {
		if s, ok := arbitrage.Statistics(c); ok {
			out = append(out, statisticsEntry{Symbol: c.Symbol, Stats: s})
		}
	}
	writeData(w, out)
}

// marketStatus reports the reference market session for a stock symbol.
// GET /market-status/{symbol}
func (h *handlers) marketStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.MarketStatus == nil {
		writeError(w, http.StatusServiceUnavailable, "reference venue disabled")
		return
	}
	symbol := strings.ToUpper(r.PathValue("symbol"))

	open, err := h.deps.MarketStatus.MarketOpen(r.Context(), symbol)
	if err != nil {
		h.logger.Warn("failed to check market status", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusBadGateway, "market status unavailable for "+symbol)
		return
	}
	writeData(w, map[string]any{"symbol": symbol, "isMarketOpen": open})
}

func (h *handlers) latest(w http.ResponseWriter, r *http.Request) ([]quote.Comparison, bool) {
	comparisons, err := h.deps.Snapshot.Latest(r.Context())
	if err != nil {
		h.logger.Error("failed to read snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read latest snapshot")
		return nil, false
	}
	if comparisons == nil {
		comparisons = []quote.Comparison{}
	}
	return comparisons, true
}
