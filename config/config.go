package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNoInstruments is returned when the configuration names no instruments at all.
var ErrNoInstruments = errors.New("config: no instruments configured")

type Config struct {
	Environment string         `mapstructure:"environment"` // "dev" or "prod"
	Log         LogConfig      `mapstructure:"log"`
	Server      ServerConfig   `mapstructure:"server"`
	Scanner     ScannerConfig  `mapstructure:"scanner"`
	Venues      VenuesConfig   `mapstructure:"venues"`
	Instruments []Instrument   `mapstructure:"instruments"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ScannerConfig drives detection thresholds and batch pacing.
type ScannerConfig struct {
	MinSpreadPercent float64       `mapstructure:"min_spread_percent"` // opportunities below this are dropped
	TopN             int           `mapstructure:"top_n"`              // size of the global best list
	InstrumentDelay  time.Duration `mapstructure:"instrument_delay"`   // pause between instruments in a batch run
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`   // 0 disables the background refresher
}

type VenuesConfig struct {
	Bybit      VenueConfig      `mapstructure:"bybit"`
	Kraken     KrakenConfig     `mapstructure:"kraken"`
	KyberSwap  KyberSwapConfig  `mapstructure:"kyberswap"`
	Jupiter    JupiterConfig    `mapstructure:"jupiter"`
	TwelveData TwelveDataConfig `mapstructure:"twelvedata"`
}

type VenueConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type KrakenConfig struct {
	VenueConfig `mapstructure:",squash"`
}

type KyberSwapConfig struct {
	VenueConfig      `mapstructure:",squash"`
	ChainID          string `mapstructure:"chain_id"`           // "1" for Ethereum mainnet
	TokenOut         string `mapstructure:"token_out"`          // stable asset address (USDT)
	TokenDecimals    int32  `mapstructure:"token_decimals"`     // decimals of the instrument token
	TokenOutDecimals int32  `mapstructure:"token_out_decimals"` // decimals of the stable asset
}

type JupiterConfig struct {
	VenueConfig    `mapstructure:",squash"`
	OutputMint     string `mapstructure:"output_mint"`     // stable asset mint (USDC)
	InputDecimals  int32  `mapstructure:"input_decimals"`  // decimals of the instrument mint
	OutputDecimals int32  `mapstructure:"output_decimals"` // decimals of the stable mint
	SlippageBps    int    `mapstructure:"slippage_bps"`
	APIKey         string `mapstructure:"api_key"`
}

type TwelveDataConfig struct {
	VenueConfig `mapstructure:",squash"`
	APIKey      string `mapstructure:"api_key"`
	APIKeyParam string `mapstructure:"api_key_param"` // SSM parameter name used in prod
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads config.yaml (path, or the usual config directories when path is empty),
// overlays XSCREENER_* environment variables and fills credentials from .env.
// A missing config file is only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}

	// Support environment variables with dot notation (e.g., XSCREENER_SCANNER_TOP_N)
	v.SetEnvPrefix("XSCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvCredentials(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configDirs() []string {
	dirs := []string{"./config", "../config", "../../config"}
	if ex, err := os.Executable(); err == nil && !strings.Contains(ex, "go-build") {
		dirs = append(dirs, filepath.Join(filepath.Dir(ex), "../config"))
	}
	return dirs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("scanner.min_spread_percent", 0.5)
	v.SetDefault("scanner.top_n", 10)
	v.SetDefault("scanner.instrument_delay", 8*time.Second)
	v.SetDefault("scanner.refresh_interval", 5*time.Minute)

	v.SetDefault("venues.bybit.enabled", true)
	v.SetDefault("venues.bybit.base_url", "https://api.bybit.com")
	v.SetDefault("venues.bybit.timeout", 10*time.Second)

	// xStocks are not listed on Kraken; kept for when they are.
	v.SetDefault("venues.kraken.enabled", false)
	v.SetDefault("venues.kraken.base_url", "https://api.kraken.com")
	v.SetDefault("venues.kraken.timeout", 10*time.Second)

	v.SetDefault("venues.kyberswap.enabled", true)
	v.SetDefault("venues.kyberswap.base_url", "https://aggregator-api.kyberswap.com")
	v.SetDefault("venues.kyberswap.timeout", 15*time.Second)
	v.SetDefault("venues.kyberswap.chain_id", "1")
	v.SetDefault("venues.kyberswap.token_out", "0xdac17f958d2ee523a2206206994597c13d831ec7") // USDT
	v.SetDefault("venues.kyberswap.token_decimals", 18)
	v.SetDefault("venues.kyberswap.token_out_decimals", 6)

	v.SetDefault("venues.jupiter.enabled", true)
	v.SetDefault("venues.jupiter.base_url", "https://api.jup.ag")
	v.SetDefault("venues.jupiter.timeout", 15*time.Second)
	v.SetDefault("venues.jupiter.output_mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v") // USDC
	v.SetDefault("venues.jupiter.input_decimals", 8)
	v.SetDefault("venues.jupiter.output_decimals", 6)
	v.SetDefault("venues.jupiter.slippage_bps", 50)
	v.SetDefault("venues.jupiter.api_key", "")

	v.SetDefault("venues.twelvedata.enabled", true)
	v.SetDefault("venues.twelvedata.base_url", "https://api.twelvedata.com")
	v.SetDefault("venues.twelvedata.timeout", 10*time.Second)
	v.SetDefault("venues.twelvedata.api_key", "")
	v.SetDefault("venues.twelvedata.api_key_param", "")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "xscreener")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.create_db", false)
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("redis.prefix", "xscreener")
}

func applyDefaults(cfg *Config) {
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = DefaultInstruments()
	}
	for i := range cfg.Instruments {
		cfg.Instruments[i].normalize()
	}
	if cfg.Scanner.TopN <= 0 {
		cfg.Scanner.TopN = 10
	}
	if cfg.Log.Environment == "" {
		cfg.Log.Environment = cfg.Environment
	}
}

// applyEnvCredentials fills API keys from the well-known variables used by the
// venues' own docs when the config file left them empty.
func applyEnvCredentials(cfg *Config) {
	if cfg.Venues.TwelveData.APIKey == "" {
		cfg.Venues.TwelveData.APIKey = os.Getenv("TWELVE_DATA_API_KEY")
	}
	if cfg.Venues.Jupiter.APIKey == "" {
		cfg.Venues.Jupiter.APIKey = os.Getenv("JUPITER_API_KEY")
	}
}

// Validate reports systemic configuration problems.
func (cfg *Config) Validate() error {
	if len(cfg.Instruments) == 0 {
		return ErrNoInstruments
	}

	seen := make(map[string]struct{}, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		if inst.Key == "" {
			return errors.New("config: instrument with empty key")
		}
		if _, ok := seen[inst.Key]; ok {
			return fmt.Errorf("config: duplicate instrument %q", inst.Key)
		}
		seen[inst.Key] = struct{}{}

		if inst.Ethereum != "" && !common.IsHexAddress(inst.Ethereum) {
			return fmt.Errorf("config: instrument %s: invalid ethereum address %q", inst.Key, inst.Ethereum)
		}
	}

	if cfg.Venues.KyberSwap.Enabled && !common.IsHexAddress(cfg.Venues.KyberSwap.TokenOut) {
		return fmt.Errorf("config: venues.kyberswap.token_out is not an address: %q", cfg.Venues.KyberSwap.TokenOut)
	}
	if cfg.Scanner.MinSpreadPercent < 0 {
		return fmt.Errorf("config: scanner.min_spread_percent must be >= 0, got %v", cfg.Scanner.MinSpreadPercent)
	}
	if cfg.Scanner.InstrumentDelay < 0 {
		return fmt.Errorf("config: scanner.instrument_delay must be >= 0, got %s", cfg.Scanner.InstrumentDelay)
	}

	for name, vc := range cfg.Venues.all() {
		if !vc.Enabled {
			continue
		}
		if strings.TrimSpace(vc.BaseURL) == "" {
			return fmt.Errorf("config: venues.%s.base_url empty but enabled", name)
		}
		if vc.Timeout <= 0 {
			return fmt.Errorf("config: venues.%s.timeout must be positive", name)
		}
	}
	return nil
}

func (v VenuesConfig) all() map[string]VenueConfig {
	return map[string]VenueConfig{
		"bybit":      v.Bybit,
		"kraken":     v.Kraken.VenueConfig,
		"kyberswap":  v.KyberSwap.VenueConfig,
		"jupiter":    v.Jupiter.VenueConfig,
		"twelvedata": v.TwelveData.VenueConfig,
	}
}
