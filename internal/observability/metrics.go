package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MapCollector bundles Prometheus metrics for the map engine and exposes a
// /metrics handler. It satisfies core.MetricsRecorder.
type MapCollector struct {
	gatherer prometheus.Gatherer

	LinksActive     prometheus.Gauge
	LinksSpawned    prometheus.Counter
	LinksRetired    *prometheus.CounterVec
	Regenerations   prometheus.Counter
	ScenePrimitives *prometheus.GaugeVec
	TickDuration    prometheus.Histogram
}

// NewMapCollector registers map metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMapCollector(reg prometheus.Registerer) (*MapCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "map_links_active",
		Help: "Current number of live link arcs.",
	}), "map_links_active")
	if err != nil {
		return nil, err
	}

	spawned, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "map_links_spawned_total",
		Help: "Total number of link arcs spawned.",
	}), "map_links_spawned_total")
	if err != nil {
		return nil, err
	}

	retired, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "map_links_retired_total",
		Help: "Total number of link arcs removed, labeled by reason (expired, replaced, culled, reset).",
	}, []string{"reason"}), "map_links_retired_total")
	if err != nil {
		return nil, err
	}

	regenerations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "map_regenerations_total",
		Help: "Total number of scene generation passes.",
	}), "map_regenerations_total")
	if err != nil {
		return nil, err
	}

	primitives, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "map_scene_primitives",
		Help: "Number of static draw primitives in the current scene, labeled by layer.",
	}, []string{"layer"}), "map_scene_primitives")
	if err != nil {
		return nil, err
	}

	tick, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "map_tick_duration_seconds",
		Help:    "Time spent in one animation tick.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}), "map_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &MapCollector{
		gatherer:        gatherer,
		LinksActive:     active,
		LinksSpawned:    spawned,
		LinksRetired:    retired,
		Regenerations:   regenerations,
		ScenePrimitives: primitives,
		TickDuration:    tick,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *MapCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MapCollector) Handler() http.Handler {
	var gatherer prometheus.Gatherer
	if c != nil {
		gatherer = c.gatherer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetActiveLinks updates the live link gauge.
func (c *MapCollector) SetActiveLinks(n int) {
	if c == nil || c.LinksActive == nil {
		return
	}
	c.LinksActive.Set(float64(n))
}

// LinkSpawned counts one new link.
func (c *MapCollector) LinkSpawned() {
	if c == nil || c.LinksSpawned == nil {
		return
	}
	c.LinksSpawned.Inc()
}

// LinkRetired counts one removed link.
func (c *MapCollector) LinkRetired(reason string) {
	if c == nil || c.LinksRetired == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	c.LinksRetired.WithLabelValues(reason).Inc()
}

// SceneGenerated records a generation pass and its per-layer sizes.
func (c *MapCollector) SceneGenerated(primitivesByLayer map[string]int) {
	if c == nil {
		return
	}
	if c.Regenerations != nil {
		c.Regenerations.Inc()
	}
	if c.ScenePrimitives != nil {
		for layer, n := range primitivesByLayer {
			c.ScenePrimitives.WithLabelValues(layer).Set(float64(n))
		}
	}
}

// ObserveTick records the duration of one animation tick.
func (c *MapCollector) ObserveTick(d time.Duration) {
	if c == nil || c.TickDuration == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}
