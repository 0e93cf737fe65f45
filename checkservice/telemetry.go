package checkservice

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/runtimehealth/types"
)

// Instrument names.
const (
	SpanName    = "healthcheck.run"
	CounterName = "healthcheck.results"
)

type telemetry struct {
	tracer  trace.Tracer
	results metric.Int64Counter
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*telemetry, error) {
	t := &telemetry{tracer: tracer}
	if meter == nil {
		return t, nil
	}

	var err error
	t.results, err = meter.Int64Counter(
		CounterName,
		metric.WithDescription("Number of health check results by check and status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create results counter: %w", err)
	}
	return t, nil
}

// start opens a span for one check. The returned func closes it and counts
// the result.
func (t *telemetry) start(ctx context.Context, id string, schedulable bool) (context.Context, func(types.HealthStatus)) {
	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.Start(ctx, SpanName, trace.WithAttributes(
			attribute.String("check.id", id),
			attribute.Bool("check.schedulable", schedulable),
		))
	}

	return ctx, func(status types.HealthStatus) {
		if span != nil {
			span.SetAttributes(attribute.String("check.status", status.Status))
			if status.HelpAnchor != "" {
				span.SetAttributes(attribute.String("check.help_anchor", status.HelpAnchor))
			}
			if status.IsError() {
				span.SetStatus(codes.Error, status.Message)
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}
		if t.results != nil {
			t.results.Add(ctx, 1, metric.WithAttributes(
				attribute.String("check", id),
				attribute.String("status", status.Status),
			))
		}
	}
}
