package observability

import (
	"context"

	"github.com/spediralabs/spedira/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// StartTracing installs an OTLP trace exporter when tracing is enabled.
// Disabled tracing leaves the default no-op provider in place.
func StartTracing(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	if !cfg.Tracing.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
			if cfg.Tracing.OTLPEndpoint != "" {
				opts = append(opts, otlptracehttp.WithEndpoint(cfg.Tracing.OTLPEndpoint))
			}
			exporter, err := otlptracehttp.New(ctx, opts...)
			if err != nil {
				return err
			}

			res, err := resource.New(ctx,
				resource.WithAttributes(semconv.ServiceName("spedira")),
			)
			if err != nil {
				return err
			}

			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(tp)
			log.Info("tracing enabled", zap.String("endpoint", cfg.Tracing.OTLPEndpoint))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
				return tp.Shutdown(ctx)
			}
			return nil
		},
	})
}
