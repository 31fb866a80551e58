package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/wolfeidau/h5runner"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal      metric.Int64Counter
	BuildErrorsTotal metric.Int64Counter
	BuildWarnings    metric.Int64Counter
	BuildDuration    metric.Float64Histogram

	// Output metrics
	OutputFiles metric.Int64Counter
	OutputBytes metric.Int64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// Tracer returns the tracer used for build spans.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	// Build metrics
	m.BuildsTotal, _ = meter.Int64Counter(
		"h5runner.builds.total",
		metric.WithDescription("Total number of bundler builds, including watch rebuilds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"h5runner.builds.errors.total",
		metric.WithDescription("Total number of bundler error messages"),
		metric.WithUnit("{error}"),
	)

	m.BuildWarnings, _ = meter.Int64Counter(
		"h5runner.builds.warnings.total",
		metric.WithDescription("Total number of bundler warning messages"),
		metric.WithUnit("{warning}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"h5runner.builds.duration",
		metric.WithDescription("Duration of bundler builds"),
		metric.WithUnit("ms"),
	)

	// Output metrics
	m.OutputFiles, _ = meter.Int64Counter(
		"h5runner.outputs.files.total",
		metric.WithDescription("Total number of files written by builds"),
		metric.WithUnit("{file}"),
	)

	m.OutputBytes, _ = meter.Int64Histogram(
		"h5runner.outputs.bytes",
		metric.WithDescription("Size of each file written by builds"),
		metric.WithUnit("By"),
	)

	return m
}
