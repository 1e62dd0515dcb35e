// Package kv is the durable key-value facility the storefront persists its
// blobs into. Values are opaque strings; there is no expiry.
package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Storefront/pkg/kit"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Backend string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Prefix namespaces keys on shared backends (Redis only).
	Prefix string
}

// Open builds the configured backend. The returned close func releases its
// connections and is safe to call on every path.
func Open(ctx context.Context, cfg Config) (Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemStore(), func() error { return nil }, nil

	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("kv: %s backend requires a database url", BackendPostgres)
		}
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, nil, fmt.Errorf("kv: %s backend requires an address", BackendRedis)
		}
		s := NewRedisStore(NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.Prefix)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("kv: redis ping: %w", err)
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("kv: unknown backend %q", cfg.Backend)
	}
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

// ConfigFromEnv reads KV_BACKEND, DATABASE_URL, REDIS_ADDR, REDIS_PASSWORD,
// REDIS_DB and KV_PREFIX.
func ConfigFromEnv() Config {
	return Config{
		Backend:       kit.Getenv("KV_BACKEND", BackendMemory),
		DatabaseURL:   kit.Getenv("DATABASE_URL", ""),
		RedisAddr:     kit.Getenv("REDIS_ADDR", ""),
		RedisPassword: kit.Getenv("REDIS_PASSWORD", ""),
		RedisDB:       kit.GetenvInt("REDIS_DB", 0),
		Prefix:        kit.Getenv("KV_PREFIX", ""),
	}
}
