// internal/storage/redis/client.go
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/taskstack/todo-service/pkg/backoff"
	"github.com/taskstack/todo-service/pkg/logger"
)

// Connect dials redis, authenticates when a password is configured, and
// verifies the connection with a retried PING. The returned client is an
// explicitly owned resource; callers release it via Close.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*redis.Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.Named("redis")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// AUTH happens per pooled connection inside go-redis; a wrong password
	// therefore surfaces here on the first PING.
	op := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	ctxConn, span := tracer.Start(ctx, "Connect", trace.WithAttributes(attribute.String("addr", cfg.Addr())))
	if err := backoff.Execute(ctxConn, cfg.Backoff, log, op); err != nil {
		span.RecordError(err)
		span.End()
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", ErrUnavailable, cfg.Addr(), err)
	}
	span.End()
	log.Info("redis: connected", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))

	return rdb, nil
}
