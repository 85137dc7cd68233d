// Package redis caches the latest comparison snapshot using go-redis/v9.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"xscreener/config"
	"xscreener/internal/quote"
)

const defaultTTL = 10 * time.Minute

// Store keeps one JSON value per symbol plus an index of the last run's order.
//
// Key schema:
//
//	{prefix}:comparison:{symbol} - JSON encoded quote.Comparison
//	{prefix}:comparison:index    - JSON array of symbols in run order
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects and pings Redis. It returns an error if the server is unreachable.
func New(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewWithClient(rdb, cfg.Prefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "xscreener"
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store) comparisonKey(symbol string) string {
	return s.prefix + ":comparison:" + symbol
}

func (s *Store) indexKey() string {
	return s.prefix + ":comparison:index"
}

// Save writes every comparison and the run index in one transaction.
func (s *Store) Save(ctx context.Context, comparisons []quote.Comparison) error {
	if len(comparisons) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(comparisons))
	pipe := s.rdb.TxPipeline()
	for _, c := range comparisons {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("redis: marshal comparison %s: %w", c.Symbol, err)
		}
		pipe.Set(ctx, s.comparisonKey(c.Symbol), data, s.ttl)
		symbols = append(symbols, c.Symbol)
	}

	index, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("redis: marshal index: %w", err)
	}
	pipe.Set(ctx, s.indexKey(), index, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save snapshot: %w", err)
	}
	return nil
}

// Latest returns the last run's comparisons that have not expired.
func (s *Store) Latest(ctx context.Context) ([]quote.Comparison, error) {
	raw, err := s.rdb.Get(ctx, s.indexKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []quote.Comparison{}, nil
		}
		return nil, fmt.Errorf("redis: get index: %w", err)
	}

	var symbols []string
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, fmt.Errorf("redis: unmarshal index: %w", err)
	}
	if len(symbols) == 0 {
		return []quote.Comparison{}, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = s.comparisonKey(sym)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget comparisons: %w", err)
	}

	out := make([]quote.Comparison, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // expired
		}
		var c quote.Comparison
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			return nil, fmt.Errorf("redis: unmarshal comparison %s: %w", symbols[i], err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
