// Package telemetry wires optional OpenTelemetry export.
//
// Setup installs OTLP gRPC trace and metric providers as the otel globals.
// Both exporters share one gRPC connection. When no endpoint is configured
// nothing is installed and the tracer and meter used by the reconcile engine
// remain no-ops.
//
//	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
//	defer shutdown(context.Background())
package telemetry
