package venue

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"xscreener/config"
	"xscreener/internal/quote"
	"xscreener/pkg/jupiter"
)

// Jupiter reads the price endpoint first and falls back to a simulated swap.
type Jupiter struct {
	base
	client         *jupiter.Client
	outputMint     string
	inputDecimals  int32
	outputDecimals int32
	slippageBps    int
}

func NewJupiter(cfg config.JupiterConfig, logger *zap.Logger) *Jupiter {
	return &Jupiter{
		base:           newBase(NameJupiter, quote.ClassAggregator, cfg.Timeout, logger),
		client:         jupiter.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		outputMint:     cfg.OutputMint,
		inputDecimals:  cfg.InputDecimals,
		outputDecimals: cfg.OutputDecimals,
		slippageBps:    cfg.SlippageBps,
	}
}

func (j *Jupiter) FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool) {
	return j.run(ctx, inst, func(ctx context.Context) (quote.Quote, error) {
		if inst.Solana == "" {
			return quote.Quote{}, errNotListed
		}

		q, err := Chain{
			{Name: "price", Fetch: func(ctx context.Context) (quote.Quote, error) { return j.viaPrice(ctx, inst) }},
			{Name: "quote", Fetch: func(ctx context.Context) (quote.Quote, error) { return j.viaQuote(ctx, inst) }},
		}.Run(ctx, j.timeout)
		if errors.Is(err, jupiter.ErrUnauthorized) {
			j.logger.Warn("jupiter requires an api key, set JUPITER_API_KEY (https://portal.jup.ag)")
		}
		return q, err
	})
}

func (j *Jupiter) viaPrice(ctx context.Context, inst config.Instrument) (quote.Quote, error) {
	entry, err := j.client.GetPrice(ctx, inst.Solana)
	if err != nil {
		return quote.Quote{}, err
	}
	return quote.New(inst.Symbol, NameJupiter, quote.ClassAggregator, entry.USDPrice, nowMillis(),
		quote.WithSource("Jupiter"))
}

func (j *Jupiter) viaQuote(ctx context.Context, inst config.Instrument) (quote.Quote, error) {
	resp, err := j.client.GetQuote(ctx, jupiter.QuoteRequest{
		InputMint:   inst.Solana,
		OutputMint:  j.outputMint,
		Amount:      OneToken(j.inputDecimals),
		SlippageBps: j.slippageBps,
	})
	if err != nil {
		return quote.Quote{}, err
	}

	price, err := UnitPrice(resp.InAmount, j.inputDecimals, resp.OutAmount, j.outputDecimals)
	if err != nil {
		return quote.Quote{}, err
	}

	source := "Jupiter"
	if labels := resp.Labels(); len(labels) > 0 {
		source = "Jupiter (" + strings.Join(labels, ", ") + ")"
	}
	opts := []quote.Option{quote.WithSource(source)}
	if out, err := Units(resp.OutAmount, j.outputDecimals); err == nil {
		opts = append(opts, quote.WithLiquidity(out))
	}
	return quote.New(inst.Symbol, NameJupiter, quote.ClassAggregator, price, nowMillis(), opts...)
}
