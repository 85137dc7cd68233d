package venue

import (
	"go.uber.org/zap"

	"xscreener/config"
)

// Set is the reference adapter plus the venue adapters in comparison order.
type Set struct {
	Reference Adapter // nil when the reference venue is disabled
	Venues    []Adapter
}

// FromConfig builds adapters for every enabled venue.
func FromConfig(cfg config.VenuesConfig, logger *zap.Logger) Set {
	var set Set
	if cfg.TwelveData.Enabled {
		set.Reference = NewTwelveData(cfg.TwelveData, logger)
	}
	if cfg.Bybit.Enabled {
		set.Venues = append(set.Venues, NewBybit(cfg.Bybit, logger))
	}
	if cfg.Kraken.Enabled {
		set.Venues = append(set.Venues, NewKraken(cfg.Kraken, logger))
	}
	if cfg.KyberSwap.Enabled {
		set.Venues = append(set.Venues, NewKyberSwap(cfg.KyberSwap, logger))
	}
	if cfg.Jupiter.Enabled {
		set.Venues = append(set.Venues, NewJupiter(cfg.Jupiter, logger))
	}
	return set
}

// Names lists venue ids in slot order, reference excluded.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.Venues))
	for _, a := range s.Venues {
		names = append(names, a.Name())
	}
	return names
}
