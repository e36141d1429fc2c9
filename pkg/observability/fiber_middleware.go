package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/clinicflow_backend/pkg/reqctx"
)

const instrumentationName = "github.com/Alijeyrad/clinicflow_backend/pkg/observability"

// HeaderTraceID echoes the server span's trace id back to the caller.
const HeaderTraceID = "X-Trace-Id"

type httpInstruments struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func newHTTPInstruments() httpInstruments {
	meter := otel.Meter(instrumentationName)
	in := httpInstruments{tracer: otel.Tracer(instrumentationName)}

	var err error
	if in.requests, err = meter.Int64Counter("clinicflow.http.requests",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	); err != nil {
		in.requests = noop.Int64Counter{}
	}
	if in.latency, err = meter.Float64Histogram("clinicflow.http.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"),
	); err != nil {
		in.latency = noop.Float64Histogram{}
	}
	return in
}

// FiberMiddleware opens a server span per request and records request count
// and latency, both labelled with the matched route pattern. Spans also
// carry the clinic once the scope middleware has resolved it.
func FiberMiddleware() fiber.Handler {
	in := newHTTPInstruments()

	return func(c fiber.Ctx) error {
		parent := otel.GetTextMapPropagator().Extract(
			c.Context(),
			propagation.HeaderCarrier(http.Header(c.GetReqHeaders())),
		)
		ctx, span := in.tracer.Start(parent, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.URLPath(c.Path()),
				semconv.ClientAddress(c.IP()),
				semconv.UserAgentOriginal(c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		c.SetContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Set(HeaderTraceID, sc.TraceID().String())
		}

		start := time.Now()
		err := c.Next()
		took := float64(time.Since(start).Microseconds()) / 1000

		route := c.Route().Path
		status := c.Response().StatusCode()
		span.SetName(c.Method() + " " + route)

		attrs := []attribute.KeyValue{
			semconv.HTTPRequestMethodKey.String(c.Method()),
			semconv.HTTPRoute(route),
			semconv.HTTPResponseStatusCode(status),
		}
		span.SetAttributes(attrs...)
		span.SetAttributes(requestScopeAttrs(c)...)

		in.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		in.latency.Record(ctx, took, metric.WithAttributes(attrs...))

		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
			if err != nil {
				span.RecordError(err)
			}
		}
		return err
	}
}

// requestScopeAttrs reads what later middleware attached to the request
// context. High-cardinality ids go on spans only, never on metrics.
func requestScopeAttrs(c fiber.Ctx) []attribute.KeyValue {
	ctx := c.Context()
	var out []attribute.KeyValue
	if id := reqctx.RequestIDFromContext(ctx); id != "" {
		out = append(out, attribute.String("clinicflow.request_id", id))
	}
	if s, ok := reqctx.ClinicScopeFromContext(ctx); ok {
		out = append(out,
			attribute.String("clinicflow.clinic_id", s.ClinicID.String()),
			attribute.String("clinicflow.role", string(s.Role)),
		)
	}
	return out
}
