package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/streamcall/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	Endpoint       string        `mapstructure:"endpoint"`
	Insecure       bool          `mapstructure:"insecure"`
	Interval       time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns defaults for local development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// StreamMetrics holds the instruments recorded by streaming exchanges.
type StreamMetrics struct {
	sessionsActive metric.Int64UpDownCounter
	sessionsTotal  metric.Int64Counter
	sessionTime    metric.Float64Histogram
	valuesTotal    metric.Int64Counter
	bytesIn        metric.Int64Counter
	chunksOut      metric.Int64Counter
	bytesOut       metric.Int64Counter
}

// NewStreamMetrics creates the stream instruments on meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	m := &StreamMetrics{}
	var err error

	if m.sessionsActive, err = meter.Int64UpDownCounter("stream.sessions.active",
		metric.WithDescription("Number of open streaming sessions"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.sessions.active: %w", err)
	}
	if m.sessionsTotal, err = meter.Int64Counter("stream.sessions.total",
		metric.WithDescription("Finished streaming sessions by mode and state"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.sessions.total: %w", err)
	}
	if m.sessionTime, err = meter.Float64Histogram("stream.session.duration",
		metric.WithDescription("Duration of streaming sessions"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.session.duration: %w", err)
	}
	if m.valuesTotal, err = meter.Int64Counter("stream.values.total",
		metric.WithDescription("Decoded values delivered to consumers"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.values.total: %w", err)
	}
	if m.bytesIn, err = meter.Int64Counter("stream.bytes.in",
		metric.WithDescription("Response bytes consumed"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.bytes.in: %w", err)
	}
	if m.chunksOut, err = meter.Int64Counter("stream.chunks.out",
		metric.WithDescription("Outbound chunks sent on duplex exchanges"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.chunks.out: %w", err)
	}
	if m.bytesOut, err = meter.Int64Counter("stream.bytes.out",
		metric.WithDescription("Outbound bytes sent on duplex exchanges"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.bytes.out: %w", err)
	}
	return m, nil
}

// RecordSessionStart marks a session as active.
func (m *StreamMetrics) RecordSessionStart(ctx context.Context, mode string) {
	m.sessionsActive.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordSessionEnd records a finished session.
func (m *StreamMetrics) RecordSessionEnd(ctx context.Context, mode, state string, values, bytes int, d time.Duration) {
	modeAttr := attribute.String("mode", mode)
	m.sessionsActive.Add(ctx, -1, metric.WithAttributes(modeAttr))
	m.sessionsTotal.Add(ctx, 1, metric.WithAttributes(modeAttr, attribute.String("state", state)))
	m.sessionTime.Record(ctx, d.Seconds(), metric.WithAttributes(modeAttr))
	m.valuesTotal.Add(ctx, int64(values), metric.WithAttributes(modeAttr))
	m.bytesIn.Add(ctx, int64(bytes), metric.WithAttributes(modeAttr))
}

// RecordOutbound records one chunk sent on a duplex exchange.
func (m *StreamMetrics) RecordOutbound(ctx context.Context, n int) {
	m.chunksOut.Add(ctx, 1)
	m.bytesOut.Add(ctx, int64(n))
}
