package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"wellness/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.uber.org/zap"
)

// ServiceName identifies this engine in traces.
const ServiceName = "wellness-engine"

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs the global tracer provider when OTEL_ENABLED is set. Spans go to the OTLP HTTP
// endpoint when one is configured, otherwise to stdout. The returned func flushes and stops it.
func InitOTel(ctx context.Context, log *zap.Logger, cfg config.Config) func(context.Context) error {
	otelOnce.Do(func() {
		if !cfg.OtelEnabled {
			return
		}
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(ServiceName),
				attribute.String("deployment.environment", strings.TrimSpace(cfg.Env)),
				attribute.String("db.driver", cfg.DBDriver),
			),
		)
		if err != nil {
			log.Warn("otel resource init failed (continuing)", zap.Error(err))
		}

		exporter, err := buildTraceExporter(ctx, log, cfg)
		if err != nil {
			log.Warn("otel exporter init failed (continuing)", zap.Error(err))
			exporter = nil
		}
		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg)))),
			sdktrace.WithResource(res),
		}
		if exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized", zap.String("endpoint", cfg.OtelEndpoint))
	})
	return otelShutdown
}

func sampleRatio(cfg config.Config) float64 {
	r := cfg.OtelSampleRatio
	if r <= 0 {
		return 0.1
	}
	if r > 1 {
		return 1
	}
	return r
}

func buildTraceExporter(ctx context.Context, log *zap.Logger, cfg config.Config) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.OtelEndpoint)
	if endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.OtelInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	return exp, nil
}
