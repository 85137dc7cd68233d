package venue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"xscreener/config"
	"xscreener/internal/quote"
)

// Venue identifiers, used as slot keys in comparisons.
const (
	NameBybit      = "bybit"
	NameKraken     = "kraken"
	NameKyberSwap  = "kyberswap"
	NameJupiter    = "jupiter"
	NameTwelveData = "twelvedata"
)

// errNotListed is returned when the instrument has no identifier for a venue.
var errNotListed = errors.New("instrument not listed on venue")

// Adapter fetches one instrument's price from one venue. It never fails:
// every venue problem is logged and reported as an absent quote.
type Adapter interface {
	Name() string
	Class() quote.VenueClass
	FetchQuote(ctx context.Context, inst config.Instrument) (quote.Quote, bool)
}

// Strategy is one way of obtaining a quote from a venue.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context) (quote.Quote, error)
}

// terminalError stops a Chain: later strategies would hit the same wall.
type terminalError struct{ err error }

func (e terminalError) Error() string { return e.err.Error() }
func (e terminalError) Unwrap() error { return e.err }

// Terminal marks err so that Chain.Run does not try the remaining strategies.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return terminalError{err: err}
}

// Chain tries strategies in order; the first success wins.
type Chain []Strategy

// Run returns the first successful quote, or every strategy's error joined.
// Each strategy gets its own timeout, so a slow first attempt still leaves
// the fallback a full budget. A zero timeout means no per-strategy deadline.
func (c Chain) Run(ctx context.Context, timeout time.Duration) (quote.Quote, error) {
	if len(c) == 0 {
		return quote.Quote{}, errors.New("empty strategy chain")
	}

	var errs []error
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		q, err := s.run(ctx, timeout)
		if err == nil {
			return q, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))

		var term terminalError
		if errors.As(err, &term) {
			break
		}
	}
	return quote.Quote{}, errors.Join(errs...)
}

func (s Strategy) run(ctx context.Context, timeout time.Duration) (quote.Quote, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	return s.Fetch(ctx)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// base carries what every adapter shares.
type base struct {
	name    string
	class   quote.VenueClass
	timeout time.Duration
	logger  *zap.Logger
}

func newBase(name string, class quote.VenueClass, timeout time.Duration, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{name: name, class: class, timeout: timeout, logger: logger.Named(name)}
}

func (b base) Name() string            { return b.name }
func (b base) Class() quote.VenueClass { return b.class }

// run turns an error into an absent quote. It sets no deadline: each request
// gets the venue timeout on its own, see Chain.Run.
func (b base) run(ctx context.Context, inst config.Instrument, fetch func(context.Context) (quote.Quote, error)) (quote.Quote, bool) {
	q, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, errNotListed) {
			b.logger.Debug("instrument not listed", zap.String("symbol", inst.Symbol))
		} else {
			b.logger.Warn("quote unavailable",
				zap.String("venue", b.name),
				zap.String("symbol", inst.Symbol),
				zap.Error(err),
			)
		}
		return quote.Quote{}, false
	}
	return q, true
}

// parsePrice reads a decimal string from a venue payload.
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return v, nil
}

// parseOptional returns nil for empty or unparsable numbers.
func parseOptional(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func nowMillis() int64 { return time.Now().UnixMilli() }
