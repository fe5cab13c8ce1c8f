// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taskstack/todo-service/internal/config"
	storage "github.com/taskstack/todo-service/internal/storage/redis"
	transport "github.com/taskstack/todo-service/internal/transport/http"
	"github.com/taskstack/todo-service/pkg/backoff"
	"github.com/taskstack/todo-service/pkg/httpserver"
	"github.com/taskstack/todo-service/pkg/telemetry"

	"github.com/taskstack/todo-service/pkg/logger"
)

func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	backoff.SetServiceLabel(cfg.ServiceName)

	// === Telemetry ===
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, cfg.ServiceName, cfg.ServiceVersion, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownSafe(ctx, "telemetry", shutdownTracer, log)

	// === Redis ===
	rdb, err := storage.Connect(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}

	// === Store ===
	store := storage.New(rdb, cfg.Redis, log)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("store close failed", zap.Error(err))
		}
	}()

	// === Transport ===
	handler := transport.NewHandler(store, log)
	api := transport.Routes(handler,
		transport.RequestID(),
		transport.Metrics(),
		transport.Logging(log),
	)

	// === HTTP server (API, healthz, readyz, metrics) ===
	readiness := func() error {
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return store.Ping(ctxPing)
	}
	httpSrv, err := httpserver.New(cfg.HTTP, readiness, log, api,
		httpserver.RecoverMiddleware(log),
		httpserver.CORSMiddleware(),
	)
	if err != nil {
		return fmt.Errorf("httpserver init: %w", err)
	}

	log.WithContext(ctx).Info("todo-service: starting")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			log.WithContext(ctx).Info("todo-service shut down cleanly")
			return nil
		}
		log.WithContext(ctx).Error("todo-service exited with error", zap.Error(err))
		return err
	}

	log.WithContext(ctx).Info("todo-service shut down complete")
	return nil
}

func shutdownSafe(ctx context.Context, name string, fn func(context.Context) error, log *logger.Logger) {
	log.WithContext(ctx).Info(name + ": shutting down")
	if err := fn(ctx); err != nil {
		log.WithContext(ctx).Error(name+" shutdown failed", zap.Error(err))
	} else {
		log.WithContext(ctx).Info(name + ": shutdown complete")
	}
}
