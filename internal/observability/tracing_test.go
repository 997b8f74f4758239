package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/strategic-map/core"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("MAP_TRACING_ENABLED", "")
	t.Setenv("MAP_TRACING_EXPORTER", "")
	t.Setenv("MAP_TRACING_SERVICE_NAME", "")
	t.Setenv("MAP_TRACING_SAMPLE_RATIO", "")
	t.Setenv("MAP_OTLP_ENDPOINT", "")

	cfg := TracingConfigFromEnv("mapgen")
	if cfg.Enabled {
		t.Fatalf("tracing enabled by default")
	}
	if cfg.Exporter != ExporterStdout || cfg.ServiceName != "strategic-map" || cfg.SampleRatio != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Component != "mapgen" {
		t.Fatalf("component = %q, want mapgen", cfg.Component)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("MAP_TRACING_ENABLED", "TRUE")
	t.Setenv("MAP_TRACING_EXPORTER", "OTLP")
	t.Setenv("MAP_TRACING_SERVICE_NAME", "mapgen-test")
	t.Setenv("MAP_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("MAP_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv("mapgen")
	if !cfg.Enabled || cfg.Exporter != ExporterOTLP || cfg.ServiceName != "mapgen-test" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("ratio/endpoint not applied: %+v", cfg)
	}

	t.Setenv("MAP_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv("mapgen").SampleRatio; got != 1 {
		t.Fatalf("out of range ratio accepted: %v", got)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatalf("noop provider produced a valid span context")
	}
	span.End()
}

func TestInitTracingStdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "strategic-map-test",
		Component:   "mapview",
		Exporter:    ExporterStdout,
		SampleRatio: 1,
		Map:         core.Config{Seed: "000001", Links: 4},
		Output:      &buf,
	}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	_, span := otel.Tracer("test").Start(context.Background(), "MapEngine.Regenerate")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)

	out := buf.String()
	if !strings.Contains(out, "MapEngine.Regenerate") {
		t.Fatalf("exported spans missing span name: %s", out)
	}
	for _, want := range []string{"map.component", "mapview", "map.seed", "000001", "map.link_target", "map.canvas"} {
		if !strings.Contains(out, want) {
			t.Fatalf("exported resource missing %q: %s", want, out)
		}
	}
}

func TestResourceAttributesDescribeMap(t *testing.T) {
	cfg := TracingConfig{
		ServiceName: "strategic-map",
		Component:   "mapgen",
		Map:         core.Config{Density: 99, Links: 5, Orbits: 1},
	}
	got := map[attribute.Key]attribute.Value{}
	for _, kv := range cfg.ResourceAttributes() {
		got[kv.Key] = kv.Value
	}

	if v := got["map.canvas"].AsString(); v != "1000x700" {
		t.Fatalf("map.canvas = %q, want 1000x700", v)
	}
	if v := got["map.component"].AsString(); v != "mapgen" {
		t.Fatalf("map.component = %q, want mapgen", v)
	}
	if v := got["map.link_target"].AsInt64(); v != 5 {
		t.Fatalf("map.link_target = %d, want 5", v)
	}
	if v := got["map.density"].AsFloat64(); v != core.MaxDensity {
		t.Fatalf("map.density = %v, want clamped %v", v, core.MaxDensity)
	}
	if _, ok := got["map.seed"]; ok {
		t.Fatalf("blank seed recorded on the resource")
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); err == nil {
		t.Fatalf("expected error for unsupported exporter")
	}
}
