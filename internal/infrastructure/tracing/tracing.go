package tracing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hilthontt/parley/internal/infrastructure/env"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	Environment string  `koanf:"environment"`
	Endpoint    string  `koanf:"endpoint"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

func NewDefaultConfig(serviceName string) Config {
	return Config{
		Enabled:     env.GetBool("PARLEY_TRACING_ENABLED", false),
		ServiceName: serviceName,
		Environment: env.GetString("PARLEY_ENVIRONMENT", "development"),
		Endpoint:    env.GetString("PARLEY_OTLP_ENDPOINT", "http://localhost:4318/v1/traces"),
		SampleRatio: 1.0,
	}
}

type ShutdownFunc = func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTracer installs the global tracer provider. A disabled config leaves
// the otel no-op provider in place.
func InitTracer(cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	exp, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func GetTracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// HTTPClient wraps base's transport with otelhttp so every REST call gets a
// client span and propagated trace headers.
func HTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := *base
	c.Transport = otelhttp.NewTransport(transport)
	return &c
}
