package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pinkgavel/internal/fetch"
)

// InstrumentedFetcher wraps a fetch.Fetcher with OpenTelemetry tracing and
// metrics. Every governed request gets a span plus latency, request count,
// and error count instruments tagged with method and status.
type InstrumentedFetcher struct {
	inner    fetch.Fetcher
	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
	failures metric.Int64Counter
}

// NewInstrumentedFetcher builds the instrumentation wrapper around inner.
func NewInstrumentedFetcher(inner fetch.Fetcher) (*InstrumentedFetcher, error) {
	tracer := otel.Tracer("pinkgavel/fetch")
	meter := otel.Meter("pinkgavel/fetch")

	duration, err := meter.Float64Histogram(
		"fetch.request.duration",
		metric.WithDescription("Duration of governed HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"fetch.requests",
		metric.WithDescription("Number of governed HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"fetch.request.errors",
		metric.WithDescription("Number of governed HTTP requests that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedFetcher{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		requests: requests,
		failures: failures,
	}, nil
}

// Do delegates to the wrapped fetcher, recording a span and metrics around
// the call. The rate-limit wait and retries inside the wrapped client are
// included in the measured duration.
func (f *InstrumentedFetcher) Do(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	ctx, span := f.tracer.Start(ctx, "fetch.Do",
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := f.inner.Do(ctx, req)
	elapsed := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{attribute.String("method", req.Method)}
	if resp != nil {
		attrs = append(attrs, attribute.Int("status", resp.StatusCode))
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}

	recorded := metric.WithAttributes(attrs...)
	f.duration.Record(ctx, elapsed, recorded)
	f.requests.Add(ctx, 1, recorded)

	if err != nil {
		f.failures.Add(ctx, 1, recorded)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetStatus(codes.Ok, "")
	return resp, nil
}
