package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("component", "links")).Debug(context.Background(), "spawned", Int("active", 3), Float64("opacity", 0.5))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "spawned" || rec["component"] != "links" || rec["active"] != float64(3) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Warn(context.Background(), "shown")
	if buf.Len() == 0 {
		t.Fatalf("warn should be written at warn level")
	}
}

func TestWithGenerationLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, log := WithGenerationLogger(context.Background(), base, "000042")
	if got := SeedFromContext(ctx); got != "000042" {
		t.Fatalf("SeedFromContext = %q, want 000042", got)
	}
	id := GenerationIDFromContext(ctx)
	if id == "" {
		t.Fatalf("expected generation_id on context")
	}
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("expected logger on context")
	}

	log.Info(ctx, "regenerated")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["seed"] != "000042" || rec["generation_id"] != id {
		t.Fatalf("generation fields missing: %v", rec)
	}

	ctx2, _ := WithGenerationLogger(context.Background(), base, "000042")
	if GenerationIDFromContext(ctx2) == id {
		t.Fatalf("expected a fresh generation_id per generation")
	}
}

func TestNilContextHelpers(t *testing.T) {
	if SeedFromContext(nil) != "" || LoggerFromContext(nil) != nil {
		t.Fatalf("nil context should yield zero values")
	}
}
