package venue

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"xscreener/config"
	"xscreener/internal/quote"
	"xscreener/pkg/kraken"
)

// Kraken tries each historical spelling of the pair until one resolves.
type Kraken struct {
	base
	client *kraken.Client
}

func NewKraken(cfg config.KrakenConfig, logger *zap.Logger) *Kraken {
	return &Kraken{
		base:   newBase(NameKraken, quote.ClassExchange, cfg.Timeout, logger),
		client: kraken.NewClient(cfg.BaseURL, cfg.Timeout),
	}
}

func (k *Kraken) FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool) {
	return k.run(ctx, inst, func(ctx context.Context) (quote.Quote, error) {
		variants := kraken.PairVariants(inst.Kraken)
		if len(variants) == 0 {
			return quote.Quote{}, errNotListed
		}

		chain := make(Chain, 0, len(variants))
		for _, pair := range variants {
			chain = append(chain, Strategy{
				Name:  pair,
				Fetch: func(ctx context.Context) (quote.Quote, error) { return k.fetchPair(ctx, inst, pair) },
			})
		}
		return chain.Run(ctx, k.timeout)
	})
}

func (k *Kraken) fetchPair(ctx context.Context, inst config.Instrument, pair string) (quote.Quote, error) {
	ticker, err := k.client.GetTicker(ctx, pair)
	if err != nil {
		return quote.Quote{}, err
	}
	if len(ticker.Last) == 0 {
		return quote.Quote{}, errors.New("ticker has no last trade")
	}
	price, err := parsePrice(ticker.Last[0])
	if err != nil {
		return quote.Quote{}, err
	}

	opts := []quote.Option{quote.WithSource("Kraken")}
	if len(ticker.Volume) > 1 {
		if v := parseOptional(ticker.Volume[1]); v != nil {
			opts = append(opts, quote.WithVolume24h(*v))
		}
	}
	return quote.New(inst.Symbol, NameKraken, quote.ClassExchange, price, nowMillis(), opts...)
}
