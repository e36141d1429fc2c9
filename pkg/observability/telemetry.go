package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	appconfig "github.com/Alijeyrad/clinicflow_backend/config"
)

const shutdownGrace = 5 * time.Second

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Tracing bool
	Metrics bool

	// OTLP HTTP endpoint, e.g. "localhost:4318". Empty keeps spans in
	// process.
	OTLPEndpoint string
	OTLPInsecure bool

	// 0.0 to 1.0; zero means sample everything.
	SamplingRate float64
}

// FromCentralConfig converts the observability and server sections.
func FromCentralConfig(c *appconfig.Config) Config {
	o := c.Observability
	return Config{
		ServiceName:    o.ServiceName,
		ServiceVersion: o.ServiceVersion,
		Environment:    c.Server.Environment,
		Tracing:        o.Tracing.Enabled,
		Metrics:        o.Metrics.Enabled,
		OTLPEndpoint:   o.Tracing.OTLPEndpoint,
		OTLPInsecure:   o.Tracing.OTLPInsecure,
		SamplingRate:   o.Tracing.SamplingRate,
	}
}

// Provider owns the SDK providers installed as otel globals. Either field
// is nil when that signal is disabled.
type Provider struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// InitTelemetry installs the enabled providers as otel globals along with
// the W3C trace-context and baggage propagators.
func InitTelemetry(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: resource: %w", err)
	}

	p := &Provider{}
	if cfg.Tracing {
		if p.Tracer, err = newTracerProvider(ctx, res, cfg); err != nil {
			return nil, err
		}
		otel.SetTracerProvider(p.Tracer)
	}
	if cfg.Metrics {
		if p.Meter, err = newMeterProvider(res); err != nil {
			return nil, errors.Join(err, p.Shutdown(ctx))
		}
		otel.SetMeterProvider(p.Meter)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, cfg Config) (*sdktrace.TracerProvider, error) {
	ratio := cfg.SamplingRate
	if ratio <= 0 {
		ratio = 1
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}

	if cfg.OTLPEndpoint != "" {
		exp := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exp = append(exp, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exp...)
		if err != nil {
			return nil, fmt.Errorf("observability: otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// newMeterProvider registers a Prometheus reader with the default registry,
// which MetricsHandler serves.
func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	reader, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("observability: prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	), nil
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
