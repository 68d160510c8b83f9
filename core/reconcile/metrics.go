package reconcile

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "clinic-manager/reconcile"

// instruments are resolved from the global providers, which are no-ops
// until telemetry is configured.
type instruments struct {
	tracer  trace.Tracer
	changed metric.Int64Counter
	deleted metric.Int64Counter
	skipped metric.Int64Counter
	purged  metric.Int64Counter
	runs    metric.Int64Counter
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	in := &instruments{tracer: otel.Tracer(instrumentationName)}
	// Instrument creation only fails on invalid names; a nil counter is skipped.
	in.changed, _ = meter.Int64Counter("clinic.sync.events.changed", metric.WithDescription("Events created or recreated"))
	in.deleted, _ = meter.Int64Counter("clinic.sync.events.deleted", metric.WithDescription("Stale events deleted"))
	in.skipped, _ = meter.Int64Counter("clinic.sync.events.skipped", metric.WithDescription("Appointments skipped after remote errors"))
	in.purged, _ = meter.Int64Counter("clinic.purge.events.deleted", metric.WithDescription("Events deleted by calendar purges"))
	in.runs, _ = meter.Int64Counter("clinic.sync.runs", metric.WithDescription("Synchronization runs by outcome"))
	return in
}

func add(ctx context.Context, c metric.Int64Counter, n int, attrs ...attribute.KeyValue) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}
