// pkg/telemetry/otel.go
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/taskstack/todo-service/pkg/logger"
)

// Config holds OTLP tracer settings.
type Config struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP collector host:port
	Insecure bool   `mapstructure:"insecure"`
}

// InitTracer configures the global TracerProvider with an OTLP/gRPC exporter.
// Returns a shutdown function to be called on graceful shutdown.
func InitTracer(ctx context.Context, cfg Config, serviceName, serviceVersion string, log *logger.Logger) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry: endpoint is required")
	}
	if serviceName == "" {
		return nil, fmt.Errorf("telemetry: serviceName is required")
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithReconnectionPeriod(5 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(initCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: cannot create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: cannot create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Sugar().Infow("telemetry: tracer initialized",
		"endpoint", cfg.Endpoint,
		"service", serviceName,
		"version", serviceVersion,
	)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Sugar().Errorw("telemetry: tracer shutdown failed", "error", err)
			return err
		}
		log.Sugar().Infow("telemetry: tracer shutdown complete")
		return nil
	}
	return shutdown, nil
}
