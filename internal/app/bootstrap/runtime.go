// Package bootstrap turns configuration into the runtime collaborators used
// by cmd/api.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/therapy-booking/internal/config"
	"github.com/wolfman30/therapy-booking/internal/sessions"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

// ErrRedisUnavailable is returned when the redis session store was requested
// but the server did not answer.
var ErrRedisUnavailable = errors.New("bootstrap: redis not available")

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err, "addr", cfg.RedisAddr)
		_ = client.Close()
		return nil
	}
	return client
}

// Sweeper purges expired sessions on an interval until ctx is done.
type Sweeper interface {
	Run(ctx context.Context, every time.Duration)
}

// SessionStore is a built store plus the name used in logs and metrics.
// Close releases the underlying connection, if any. Sweeper is nil when the
// backend expires entries itself.
type SessionStore struct {
	sessions.Store
	Name    string
	Close   func() error
	Sweeper Sweeper
}

// BuildSessionStore selects the page-session store named by SESSION_STORE.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() error { return nil }

	switch cfg.SessionStore {
	case "", "memory":
		logger.Info("using in-memory session store", "ttl", cfg.SessionTTL)
		store := sessions.NewInMemoryStore(cfg.SessionTTL)
		return &SessionStore{Store: store, Name: "memory", Close: noop, Sweeper: store}, nil
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, fmt.Errorf("%w at %q", ErrRedisUnavailable, cfg.RedisAddr)
		}
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
		return &SessionStore{Store: sessions.NewRedisStore(client, cfg.SessionTTL), Name: "redis", Close: client.Close}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session store %q", cfg.SessionStore)
	}
}
