package core

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/strategic-map/internal/logging"
	"github.com/signalsfoundry/strategic-map/model"
)

const tracerName = "github.com/signalsfoundry/strategic-map/core"

// SceneComposer consumes everything the engine produces: the static scene
// once per generation, then per-tick effects and link updates.
type SceneComposer interface {
	LinkSink
	SetScene(scene *model.Scene)
	SetEffects(fx Effects)
}

// MetricsRecorder receives engine-level measurements.
type MetricsRecorder interface {
	LinkMetricsRecorder
	SceneGenerated(primitivesByLayer map[string]int)
	ObserveTick(d time.Duration)
}

// MapEngine is the animation context: it owns the random stream, the link
// population and the effect state for the current generation. It is not
// safe for concurrent use; drive it from a single animation loop.
type MapEngine struct {
	cfg      Config
	composer SceneComposer
	metrics  MetricsRecorder
	log      logging.Logger
	tracer   trace.Tracer
	entropy  *rand.Rand

	links   *LinkEngine
	effects *EffectsEngine

	seed   string
	scene  *model.Scene
	rng    *Stream
	paused bool

	// simNow is engine time since the current generation started. It only
	// advances while not paused, so pausing never ages links.
	simNow   time.Duration
	lastWall time.Time
}

// Option customises MapEngine construction.
type Option func(*MapEngine)

// WithComposer routes all output to c.
func WithComposer(c SceneComposer) Option {
	return func(m *MapEngine) {
		if c != nil {
			m.composer = c
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r MetricsRecorder) Option {
	return func(m *MapEngine) {
		m.metrics = r
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(m *MapEngine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithEntropy sets the non-seeded source used for auto seeds and screen
// effects. Tests pass a fixed PCG to make effects repeatable.
func WithEntropy(r *rand.Rand) Option {
	return func(m *MapEngine) {
		if r != nil {
			m.entropy = r
		}
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(m *MapEngine) {
		if t != nil {
			m.tracer = t
		}
	}
}

// NewMapEngine builds an engine over the given city catalog. Nothing is
// drawn until Regenerate is called.
func NewMapEngine(cfg Config, cities []model.City, opts ...Option) *MapEngine {
	m := &MapEngine{
		cfg:      cfg.Normalize(),
		composer: noopComposer{},
		log:      logging.Noop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.entropy == nil {
		m.entropy = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	linkOpts := []LinkEngineOption{
		WithLinkSink(m.composer),
		WithLinkLogger(m.log),
	}
	if m.metrics != nil {
		linkOpts = append(linkOpts, WithLinkMetrics(m.metrics))
	}
	m.links = NewLinkEngine(cities, linkOpts...)
	m.effects = NewEffectsEngine(m.entropy)
	return m
}

// Regenerate discards the current generation and draws a new one from the
// configured seed (or a random 6-digit seed when blank). All in-flight
// links are removed and timers reset before the new scene reaches the
// composer.
func (m *MapEngine) Regenerate(ctx context.Context) *model.Scene {
	return m.RegenerateSeed(ctx, m.cfg.Seed)
}

// RegenerateSeed is Regenerate drawing from seed instead of Config.Seed,
// which is left untouched. A blank seed picks a random one.
func (m *MapEngine) RegenerateSeed(ctx context.Context, seed string) *model.Scene {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := m.cfg
	seed = strings.TrimSpace(seed)
	if seed == "" {
		seed = RandomSeed(m.entropy)
	}

	ctx, span := m.tracer.Start(ctx, "MapEngine.Regenerate", trace.WithAttributes(
		attribute.String("map.seed", seed),
		attribute.Float64("map.density", cfg.Density),
		attribute.Int("map.orbits", cfg.Orbits),
	))
	defer span.End()

	genCtx, log := logging.WithGenerationLogger(ctx, m.log, seed)

	rng := NewStream(seed)
	m.links.Reset(genCtx, rng)
	m.effects.Reset()
	m.simNow = 0

	scene := GenerateScene(rng, SceneParams{Seed: seed, Density: cfg.Density, Orbits: cfg.Orbits})
	m.seed, m.rng, m.scene = seed, rng, scene

	m.links.SetTarget(cfg.Links)
	m.composer.SetScene(scene)
	m.composer.SetEffects(m.effects.Current())

	counts := make(map[string]int, 3)
	for layer, n := range scene.Counts() {
		counts[layer.String()] = n
	}
	if m.metrics != nil {
		m.metrics.SceneGenerated(counts)
	}
	span.SetAttributes(attribute.Int("map.primitives", scene.Total()))

	log.Info(genCtx, "map regenerated",
		logging.Float64("density", cfg.Density),
		logging.Int("primitives", scene.Total()),
		logging.Int("link_target", cfg.Links),
		logging.Int("orbits", cfg.Orbits),
	)
	return scene
}

// Tick advances the animation to wall-clock time wall. While paused only the
// HUD clock moves.
func (m *MapEngine) Tick(wall time.Time) {
	start := time.Now()

	var dt time.Duration
	if !m.lastWall.IsZero() {
		dt = max(wall.Sub(m.lastWall), 0)
	}
	m.lastWall = wall

	if m.paused || m.rng == nil {
		m.composer.SetEffects(m.effects.SetClock(wall))
		return
	}

	m.simNow += dt
	m.composer.SetEffects(m.effects.Step(m.cfg.Flicker, wall))

	m.links.SetTarget(m.cfg.Links)
	m.links.Tick(m.simNow)

	if m.metrics != nil {
		m.metrics.ObserveTick(time.Since(start))
	}
}

// Pause freezes sweep, flicker and link ageing without discarding state.
func (m *MapEngine) Pause() {
	m.paused = true
}

// Resume continues from where Pause left off; the paused span is not
// counted toward link ages.
func (m *MapEngine) Resume() {
	m.paused = false
	m.lastWall = time.Time{}
}

// TogglePause flips the pause state and reports whether it is now paused.
func (m *MapEngine) TogglePause() bool {
	if m.paused {
		m.Resume()
	} else {
		m.Pause()
	}
	return m.paused
}

// Paused reports whether the animation is frozen.
func (m *MapEngine) Paused() bool {
	return m.paused
}

// Config returns the current settings.
func (m *MapEngine) Config() Config {
	return m.cfg
}

// SetConfig replaces the settings. Link target and flicker apply from the
// next tick; the rest apply on the next Regenerate.
func (m *MapEngine) SetConfig(cfg Config) {
	m.cfg = cfg.Normalize()
}

// SetLinks changes the link target and trims any excess immediately.
func (m *MapEngine) SetLinks(n int) {
	cfg := m.cfg
	cfg.Links = n
	m.cfg = cfg.Normalize()
	m.links.SetTarget(m.cfg.Links)
}

// Seed returns the seed of the current generation.
func (m *MapEngine) Seed() string {
	return m.seed
}

// Scene returns the current static scene, or nil before Regenerate.
func (m *MapEngine) Scene() *model.Scene {
	return m.scene
}

// ActiveLinks returns a snapshot of live links, oldest first.
func (m *MapEngine) ActiveLinks() []*Link {
	return m.links.Active()
}

// SimTime returns engine time elapsed in the current generation.
func (m *MapEngine) SimTime() time.Duration {
	return m.simNow
}

type noopComposer struct {
	noopSink
}

func (noopComposer) SetScene(*model.Scene) {}
func (noopComposer) SetEffects(Effects)    {}
