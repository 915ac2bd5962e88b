// Package observability wires OpenTelemetry tracing and metrics.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("streamcall"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("streamcall"))
//	defer mp.Shutdown(ctx)
//	metrics, err := observability.NewStreamMetrics(observability.Meter("streamcall"))
//
// Health:
//
//	report := observability.CheckAll(ctx, "streamcall", version, client)
package observability
