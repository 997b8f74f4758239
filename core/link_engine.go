package core

import (
	"context"
	"strings"
	"time"

	"github.com/signalsfoundry/strategic-map/internal/logging"
	"github.com/signalsfoundry/strategic-map/model"
)

// Population control constants.
const (
	spawnBudget      = 2200 * time.Millisecond
	minSpawnInterval = 90 * time.Millisecond
	maxSpawnInterval = 600 * time.Millisecond

	// replaceChance is the probability that a saturated spawn opportunity
	// swaps out an existing link.
	replaceChance = 0.25
	labelChance   = 0.35

	// maxEndpointAttempts caps distinct-endpoint resampling. After the cap
	// the last pair is accepted even if both ends are the same city.
	maxEndpointAttempts = 30
)

// Per-link sampling ranges, in milliseconds for durations.
var (
	drawRangeMS      = [2]float64{1400, 3200}
	holdRangeMS      = [2]float64{600, 1600}
	fadeRangeMS      = [2]float64{700, 1400}
	baseOpacityRange = [2]float64{0.22, 0.55}
	strokeWidthRange = [2]float64{1.0, 1.8}
)

// Reasons passed to LinkMetricsRecorder.LinkRetired.
const (
	RetireExpired  = "expired"
	RetireReplaced = "replaced"
	RetireCulled   = "culled"
	RetireReset    = "reset"
)

// LinkSink receives link lifecycle updates. A sink holds rendering handles
// only; the engine keeps ownership of every Link.
type LinkSink interface {
	AddLink(l *Link)
	UpdateLink(f LinkFrame)
	RemoveLink(id LinkID)
}

// LinkMetricsRecorder receives link population updates.
type LinkMetricsRecorder interface {
	SetActiveLinks(n int)
	LinkSpawned()
	LinkRetired(reason string)
}

// LinkEngine owns the population of transient link arcs. It is not safe for
// concurrent use: every call must come from the animation loop.
type LinkEngine struct {
	proj    Projection
	cities  []model.City
	sink    LinkSink
	metrics LinkMetricsRecorder
	log     logging.Logger
	ctx     context.Context

	rng        *Stream
	target     int
	active     []*Link
	spawnTimer time.Duration
	last       time.Duration
	nextID     LinkID

	warnedEmpty bool
}

// LinkEngineOption customises LinkEngine construction.
type LinkEngineOption func(*LinkEngine)

// WithLinkSink routes lifecycle updates to sink.
func WithLinkSink(sink LinkSink) LinkEngineOption {
	return func(e *LinkEngine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithLinkMetrics attaches a metrics recorder.
func WithLinkMetrics(m LinkMetricsRecorder) LinkEngineOption {
	return func(e *LinkEngine) {
		e.metrics = m
	}
}

// WithLinkLogger attaches a logger.
func WithLinkLogger(l logging.Logger) LinkEngineOption {
	return func(e *LinkEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithProjection overrides the default canvas projection.
func WithProjection(p Projection) LinkEngineOption {
	return func(e *LinkEngine) {
		e.proj = p
	}
}

// NewLinkEngine builds an engine drawing links between cities. The engine
// is idle until Reset hands it a random stream.
func NewLinkEngine(cities []model.City, opts ...LinkEngineOption) *LinkEngine {
	e := &LinkEngine{
		proj:   DefaultProjection,
		cities: append([]model.City(nil), cities...),
		sink:   noopSink{},
		log:    logging.Noop(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetSink replaces the sink receiving lifecycle updates.
func (e *LinkEngine) SetSink(sink LinkSink) {
	if sink == nil {
		sink = noopSink{}
	}
	e.sink = sink
}

// Reset retires every active link and restarts the engine on rng at engine
// time zero. The sink sees a RemoveLink for each discarded link before this
// returns, so no link from the previous generation survives.
func (e *LinkEngine) Reset(ctx context.Context, rng *Stream) {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, l := range e.active {
		e.retire(l, RetireReset)
	}
	e.ctx = ctx
	e.active = nil
	e.rng = rng
	e.spawnTimer = 0
	e.last = 0
	e.recordActive()
}

// Target returns the configured concurrent link count.
func (e *LinkEngine) Target() int {
	return e.target
}

// SetTarget changes the concurrent link target. Lowering it below the
// current population kills the excess immediately, oldest first.
func (e *LinkEngine) SetTarget(n int) {
	if n < 0 {
		n = 0
	}
	e.target = n
	e.cull()
	e.recordActive()
}

// Len returns the number of live links.
func (e *LinkEngine) Len() int {
	return len(e.active)
}

// Active returns a snapshot of the live links, oldest first.
func (e *LinkEngine) Active() []*Link {
	return append([]*Link(nil), e.active...)
}

// SpawnInterval returns the time between spawn opportunities for target,
// or zero when spawning is disabled.
func SpawnInterval(target int) time.Duration {
	if target <= 0 {
		return 0
	}
	d := spawnBudget / time.Duration(target)
	return min(max(d, minSpawnInterval), maxSpawnInterval)
}

// Tick advances the engine to now (engine time since Reset): it spends the
// accumulated spawn budget, animates every live link, retires dead ones and
// enforces the target cap.
func (e *LinkEngine) Tick(now time.Duration) {
	dt := now - e.last
	if dt < 0 {
		dt = 0
	}
	e.last = now

	if interval := SpawnInterval(e.target); interval == 0 || e.rng == nil {
		e.spawnTimer = 0
	} else {
		e.spawnTimer += dt
		for e.spawnTimer >= interval {
			e.spawnTimer -= interval
			e.spawnOpportunity(now)
		}
	}

	still := make([]*Link, 0, len(e.active))
	for _, l := range e.active {
		f := l.Frame(now)
		if f.Phase == PhaseDead {
			e.retire(l, RetireExpired)
			continue
		}
		e.sink.UpdateLink(f)
		still = append(still, l)
	}
	e.active = still

	e.cull()
	e.recordActive()
}

func (e *LinkEngine) spawnOpportunity(now time.Duration) {
	if len(e.active) < e.target {
		e.spawn(now)
		return
	}
	if e.rng.Next() < replaceChance && len(e.active) > 0 {
		idx := e.rng.RangeInt(0, len(e.active)-1)
		victim := e.active[idx]
		e.active = append(e.active[:idx], e.active[idx+1:]...)
		e.retire(victim, RetireReplaced)
		e.log.Debug(e.ctx, "replacing link", logging.Any("link_id", uint64(victim.ID)))
		e.spawn(now)
	}
}

// spawn creates one link. Stream draws happen in this fixed order:
// endpoint pairs, base opacity, stroke width, label roll, draw, hold, fade.
func (e *LinkEngine) spawn(now time.Duration) {
	from, to, err := e.pickEndpoints()
	if err != nil {
		if !e.warnedEmpty {
			e.log.Warn(e.ctx, "link spawning disabled", logging.String("error", err.Error()))
			e.warnedEmpty = true
		}
		return
	}

	a := e.proj.ProjectGeo(from.Geo())
	b := e.proj.ProjectGeo(to.Geo())

	e.nextID++
	l := &Link{
		ID:          e.nextID,
		From:        from,
		To:          to,
		A:           a,
		B:           b,
		Length:      PathLengthApprox(a, b),
		BaseOpacity: e.rng.RangeFloat(baseOpacityRange[0], baseOpacityRange[1]),
		StrokeWidth: e.rng.RangeFloat(strokeWidthRange[0], strokeWidthRange[1]),
		Born:        now,
	}
	if e.rng.Next() < labelChance {
		l.Label = strings.ToUpper(to.Name)
	}
	l.Durations = Durations{
		Draw: fromMS(e.rng.RangeFloat(drawRangeMS[0], drawRangeMS[1])),
		Hold: fromMS(e.rng.RangeFloat(holdRangeMS[0], holdRangeMS[1])),
		Fade: fromMS(e.rng.RangeFloat(fadeRangeMS[0], fadeRangeMS[1])),
	}

	e.active = append(e.active, l)
	e.sink.AddLink(l)
	if e.metrics != nil {
		e.metrics.LinkSpawned()
	}
}

// pickEndpoints draws city pairs until they differ, giving up after
// maxEndpointAttempts and keeping the last pair.
func (e *LinkEngine) pickEndpoints() (model.City, model.City, error) {
	var ai, bi int
	for attempt := 0; attempt < maxEndpointAttempts; attempt++ {
		var err error
		if ai, err = PickIndex(e.rng, len(e.cities)); err != nil {
			return model.City{}, model.City{}, err
		}
		if bi, err = PickIndex(e.rng, len(e.cities)); err != nil {
			return model.City{}, model.City{}, err
		}
		if ai != bi {
			break
		}
	}
	return e.cities[ai], e.cities[bi], nil
}

func (e *LinkEngine) cull() {
	culled := 0
	for len(e.active) > e.target {
		l := e.active[0]
		e.active = e.active[1:]
		e.retire(l, RetireCulled)
		culled++
	}
	if culled > 0 {
		e.log.Debug(e.ctx, "culled links over target",
			logging.Int("culled", culled),
			logging.Int("target", e.target),
		)
	}
}

func (e *LinkEngine) retire(l *Link, reason string) {
	e.sink.RemoveLink(l.ID)
	if e.metrics != nil {
		e.metrics.LinkRetired(reason)
	}
}

func (e *LinkEngine) recordActive() {
	if e.metrics != nil {
		e.metrics.SetActiveLinks(len(e.active))
	}
}

type noopSink struct{}

func (noopSink) AddLink(*Link)        {}
func (noopSink) UpdateLink(LinkFrame) {}
func (noopSink) RemoveLink(LinkID)    {}
