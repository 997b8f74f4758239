package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/internal/logging"
)

// Exporter names a span exporter.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

const defaultOTLPEndpoint = "localhost:4317"

// TracingConfig governs how map generation tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	// Component is the binary emitting spans, e.g. "mapgen" or "mapview".
	Component   string
	Exporter    Exporter
	Endpoint    string // OTLP collector, host:port
	SampleRatio float64

	// Map is recorded on the resource so every span of a run carries the
	// generation settings it was started with.
	Map core.Config

	// Output receives spans from the stdout exporter. Defaults to stderr,
	// since stdout may carry rendered SVG.
	Output io.Writer
}

// TracingConfigFromEnv reads MAP_TRACING_* variables for the named
// component. Unset or malformed values fall back to defaults.
func TracingConfigFromEnv(component string) TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("MAP_TRACING_ENABLED"), "true"),
		ServiceName: os.Getenv("MAP_TRACING_SERVICE_NAME"),
		Component:   component,
		Exporter:    Exporter(strings.ToLower(os.Getenv("MAP_TRACING_EXPORTER"))),
		Endpoint:    os.Getenv("MAP_OTLP_ENDPOINT"),
		SampleRatio: 1,
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "strategic-map"
	}
	if cfg.Exporter == "" {
		cfg.Exporter = ExporterStdout
	}
	if raw := os.Getenv("MAP_TRACING_SAMPLE_RATIO"); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil && r >= 0 && r <= 1 {
			cfg.SampleRatio = r
		}
	}
	return cfg
}

// ResourceAttributes describes the run: service identity plus the canvas
// and generation settings.
func (c TracingConfig) ResourceAttributes() []attribute.KeyValue {
	m := c.Map.Normalize()
	attrs := []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.namespace", "signalsfoundry"),
		attribute.String("map.canvas", fmt.Sprintf("%gx%g", core.CanvasWidth, core.CanvasHeight)),
		attribute.Float64("map.density", m.Density),
		attribute.Int("map.link_target", m.Links),
		attribute.Float64("map.flicker", m.Flicker),
		attribute.Int("map.orbits", m.Orbits),
	}
	if c.Component != "" {
		attrs = append(attrs, attribute.String("map.component", c.Component))
	}
	// A blank seed is drawn per generation and lands on the Regenerate span.
	if m.Seed != "" {
		attrs = append(attrs, attribute.String("map.seed", m.Seed))
	}
	return attrs
}

// InitTracing installs a global tracer provider for the run and returns a
// shutdown function that flushes pending spans. With tracing disabled a noop
// provider is installed and shutdown does nothing.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled", logging.String("component", cfg.Component))
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(cfg.ResourceAttributes()...),
	)
	if err != nil {
		return nil, fmt.Errorf("create tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing enabled",
		logging.String("component", cfg.Component),
		logging.String("exporter", string(cfg.Exporter)),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout, "":
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(out),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
}

// ShutdownWithTimeout flushes spans, giving up after five seconds. Errors
// are logged, not returned: a lost trace never fails a render.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
