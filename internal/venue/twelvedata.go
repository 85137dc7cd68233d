package venue

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"xscreener/config"
	"xscreener/internal/quote"
	"xscreener/pkg/twelvedata"
)

// TwelveData is the reference venue: the underlying stock's market price.
type TwelveData struct {
	base
	client *twelvedata.Client
}

func NewTwelveData(cfg config.TwelveDataConfig, logger *zap.Logger) *TwelveData {
	return &TwelveData{
		base:   newBase(NameTwelveData, quote.ClassReference, cfg.Timeout, logger),
		client: twelvedata.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
	}
}

func (t *TwelveData) FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool) {
	return t.run(ctx, inst, func(ctx context.Context) (quote.Quote, error) {
		if inst.StockSymbol == "" {
			return quote.Quote{}, errNotListed
		}
		if !t.client.HasAPIKey() {
			return quote.Quote{}, errors.New("api key not found, set TWELVE_DATA_API_KEY")
		}

		q, err := Chain{
			{Name: "price", Fetch: func(ctx context.Context) (quote.Quote, error) { return t.viaPrice(ctx, inst) }},
			{Name: "quote", Fetch: func(ctx context.Context) (quote.Quote, error) { return t.viaQuote(ctx, inst) }},
		}.Run(ctx, t.timeout)
		switch {
		case errors.Is(err, twelvedata.ErrRateLimited):
			t.logger.Warn("rate limit exceeded", zap.String("symbol", inst.StockSymbol))
		case errors.Is(err, twelvedata.ErrUnauthorized):
			t.logger.Warn("authentication failed, check api key")
		}
		return q, err
	})
}

// MarketOpen reports whether the underlying's exchange is in session.
func (t *TwelveData) MarketOpen(ctx context.Context, stockSymbol string) (bool, error) {
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()
	return t.client.IsMarketOpen(ctx, stockSymbol)
}

func (t *TwelveData) viaPrice(ctx context.Context, inst config.Instrument) (quote.Quote, error) {
	resp, err := t.client.GetPrice(ctx, inst.StockSymbol)
	if errors.Is(err, twelvedata.ErrRateLimited) || errors.Is(err, twelvedata.ErrUnauthorized) {
		// /quote draws from the same credit budget and key
		return quote.Quote{}, Terminal(err)
	}
	if err != nil {
		return quote.Quote{}, err
	}
	price, err := parsePrice(resp.Price)
	if err != nil {
		return quote.Quote{}, err
	}
	return quote.New(inst.StockSymbol, NameTwelveData, quote.ClassReference, price, nowMillis(),
		quote.WithSource("Stock Market (Twelve Data)"))
}

func (t *TwelveData) viaQuote(ctx context.Context, inst config.Instrument) (quote.Quote, error) {
	resp, err := t.client.GetQuote(ctx, inst.StockSymbol)
	if err != nil {
		return quote.Quote{}, err
	}
	price, err := parsePrice(resp.Close)
	if err != nil {
		return quote.Quote{}, err
	}

	ts := resp.Timestamp * 1000
	if ts == 0 {
		ts = nowMillis()
	}
	source := "Stock Market (Twelve Data)"
	if resp.Exchange != "" {
		source = "Stock Market (" + resp.Exchange + ")"
	}
	opts := []quote.Option{quote.WithSource(source)}
	if v := parseOptional(resp.Volume); v != nil {
		opts = append(opts, quote.WithVolume24h(*v))
	}
	return quote.New(inst.StockSymbol, NameTwelveData, quote.ClassReference, price, ts, opts...)
}
