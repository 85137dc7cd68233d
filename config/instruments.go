package config

import "strings"

// Instrument links one tokenized equity across every venue that lists it.
// Empty identifiers mean the venue does not carry the instrument.
type Instrument struct {
	Key         string `mapstructure:"key"`          // lookup key, e.g. "TSLA"
	Symbol      string `mapstructure:"symbol"`       // displayed token symbol, e.g. "TSLAx"
	StockSymbol string `mapstructure:"stock_symbol"` // underlying ticker on the reference venue
	Ethereum    string `mapstructure:"ethereum"`     // ERC-20 address
	Solana      string `mapstructure:"solana"`       // SPL mint
	Bybit       string `mapstructure:"bybit"`        // spot pair, e.g. "TSLAXUSDT"
	Kraken      string `mapstructure:"kraken"`       // spot pair, e.g. "TSLAXUSD"
}

func (i *Instrument) normalize() {
	i.Key = strings.ToUpper(strings.TrimSpace(i.Key))
	i.Symbol = strings.TrimSpace(i.Symbol)
	i.StockSymbol = strings.ToUpper(strings.TrimSpace(i.StockSymbol))
	i.Ethereum = strings.ToLower(strings.TrimSpace(i.Ethereum))
	i.Solana = strings.TrimSpace(i.Solana)
	i.Bybit = strings.ToUpper(strings.TrimSpace(i.Bybit))
	i.Kraken = strings.ToUpper(strings.TrimSpace(i.Kraken))
	if i.Symbol == "" {
		i.Symbol = i.Key
	}
	if i.StockSymbol == "" {
		i.StockSymbol = i.Key
	}
}

// Keys returns instrument keys in configured order.
func (cfg *Config) Keys() []string {
	keys := make([]string, 0, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		keys = append(keys, inst.Key)
	}
	return keys
}

// DefaultInstruments is the xStocks set screened when the config file lists none.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{
			Key:         "TSLA",
			Symbol:      "TSLAx",
			StockSymbol: "TSLA",
			Ethereum:    "0x8ad3c73f833d3f9a523ab01476625f269aeb7cf0",
			Solana:      "XsDoVfqeBukxuZHWhdvWHBhgEHjGNst4MLodqsJHzoB",
			Bybit:       "TSLAXUSDT",
			Kraken:      "TSLAXUSD",
		},
		{
			Key:         "NVDA",
			Symbol:      "NVDAx",
			StockSymbol: "NVDA",
			Ethereum:    "0x93e62845c1dd5822ebc807ab71a5fb750decd15a",
			Solana:      "Xsc9qvGR1efVDFGLrVsmkzv3qi45LTBjeUKSPmx9qEh",
			Bybit:       "NVDAXUSDT",
			Kraken:      "NVDAXUSD",
		},
		{
			Key:         "SPY",
			Symbol:      "SPYx",
			StockSymbol: "SPY",
			Ethereum:    "0xc88fcd8b874fdb3256e8b55b3decb8c24eab4c02",
			Solana:      "XsoCS1TfEyfFhfvj8EtZ528L3CaKBDBRqRapnBbDF2W",
			Bybit:       "SPYXUSDT", // not listed on Bybit yet
			Kraken:      "SPYXUSD",
		},
		{
			Key:         "AAPL",
			Symbol:      "AAPLx",
			StockSymbol: "AAPL",
			Ethereum:    "0x9d275685dc284c8eb1c79f6aba7a63dc75ec890a",
			Solana:      "XsbEhLAtcf6HdfpFZ5xEMdqW8nfAvcsP5bdudRLJzJp",
			Bybit:       "AAPLXUSDT", // not listed on Bybit yet
			Kraken:      "AAPLXUSD",
		},
	}
}
