package venue

import (
	"context"

	"go.uber.org/zap"

	"xscreener/config"
	"xscreener/internal/quote"
	"xscreener/pkg/kyberswap"
)

// KyberSwap simulates selling one whole token for the stable asset on Ethereum.
type KyberSwap struct {
	base
	client           *kyberswap.Client
	tokenOut         string
	tokenDecimals    int32
	tokenOutDecimals int32
}

func NewKyberSwap(cfg config.KyberSwapConfig, logger *zap.Logger) *KyberSwap {
	return &KyberSwap{
		base:             newBase(NameKyberSwap, quote.ClassAggregator, cfg.Timeout, logger),
		client:           kyberswap.NewClient(cfg.BaseURL, cfg.ChainID, cfg.Timeout),
		tokenOut:         cfg.TokenOut,
		tokenDecimals:    cfg.TokenDecimals,
		tokenOutDecimals: cfg.TokenOutDecimals,
	}
}

func (k *KyberSwap) FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool) {
	return k.run(ctx, inst, func(ctx context.Context) (quote.Quote, error) {
		if inst.Ethereum == "" {
			return quote.Quote{}, errNotListed
		}
		ctx, cancel := withTimeout(ctx, k.timeout)
		defer cancel()

		summary, err := k.client.GetRoute(ctx, kyberswap.RouteRequest{
			TokenIn:  inst.Ethereum,
			TokenOut: k.tokenOut,
			AmountIn: OneToken(k.tokenDecimals),
		})
		if err != nil {
			return quote.Quote{}, err
		}

		price, err := k.price(summary)
		if err != nil {
			return quote.Quote{}, err
		}

		opts := []quote.Option{
			quote.WithSource("KyberSwap"),
			quote.WithRFQ(summary.HasRFQ()),
		}
		if usd := parseOptional(summary.AmountOutUsd); usd != nil {
			opts = append(opts, quote.WithLiquidity(*usd))
		}
		return quote.New(inst.Symbol, NameKyberSwap, quote.ClassAggregator, price, nowMillis(), opts...)
	})
}

// price prefers the raw swap amounts and falls back to the USD valuation.
func (k *KyberSwap) price(s *kyberswap.RouteSummary) (float64, error) {
	if s.AmountIn != "" && s.AmountOut != "" {
		return UnitPrice(s.AmountIn, k.tokenDecimals, s.AmountOut, k.tokenOutDecimals)
	}
	return parsePrice(s.AmountOutUsd)
}
