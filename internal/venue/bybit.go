package venue

import (
	"context"

	"go.uber.org/zap"

	"xscreener/config"
	"xscreener/internal/quote"
	"xscreener/pkg/bybit"
)

// Bybit quotes the last traded spot price.
type Bybit struct {
	base
	client *bybit.RESTClient
}

func NewBybit(cfg config.VenueConfig, logger *zap.Logger) *Bybit {
	return &Bybit{
		base:   newBase(NameBybit, quote.ClassExchange, cfg.Timeout, logger),
		client: bybit.NewRESTClient(cfg.BaseURL, cfg.Timeout),
	}
}

func (b *Bybit) FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool) {
	return b.run(ctx, inst, func(ctx context.Context) (quote.Quote, error) {
		if inst.Bybit == "" {
			return quote.Quote{}, errNotListed
		}
		ctx, cancel := withTimeout(ctx, b.timeout)
		defer cancel()

		ticker, err := b.client.GetTicker(ctx, bybit.CategorySpot, inst.Bybit)
		if err != nil {
			return quote.Quote{}, err
		}
		price, err := parsePrice(ticker.LastPrice)
		if err != nil {
			return quote.Quote{}, err
		}

		ts := ticker.ServerTime
		if ts == 0 {
			ts = nowMillis()
		}
		opts := []quote.Option{quote.WithSource("Bybit")}
		if v := parseOptional(ticker.Volume24h); v != nil {
			opts = append(opts, quote.WithVolume24h(*v))
		}
		return quote.New(inst.Symbol, NameBybit, quote.ClassExchange, price, ts, opts...)
	})
}
