package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/strategic-map/model"
)

// LinkID is the rendering handle composers use to refer to a link.
type LinkID uint64

// Phase is the lifecycle stage of a link. It is never stored; PhaseOf
// derives it from the link's age every tick.
type Phase int

const (
	PhaseDrawing Phase = iota
	PhaseHolding
	PhaseFading
	PhaseDead
)

func (p Phase) String() string {
	switch p {
	case PhaseDrawing:
		return "drawing"
	case PhaseHolding:
		return "holding"
	case PhaseFading:
		return "fading"
	case PhaseDead:
		return "dead"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Durations are the per-link lifecycle thresholds.
type Durations struct {
	Draw time.Duration
	Hold time.Duration
	Fade time.Duration
}

// Lifetime is the total time before a link dies.
func (d Durations) Lifetime() time.Duration {
	return d.Draw + d.Hold + d.Fade
}

// PhaseOf maps a link age onto its phase. Boundaries are inclusive on the
// upper end: an age equal to Draw is still drawing.
func PhaseOf(age time.Duration, d Durations) Phase {
	switch {
	case age <= d.Draw:
		return PhaseDrawing
	case age <= d.Draw+d.Hold:
		return PhaseHolding
	case age <= d.Lifetime():
		return PhaseFading
	default:
		return PhaseDead
	}
}

// Opacity levels for link parts while fully visible, and the floors they
// fade toward.
const (
	EndpointOpacity = 0.7
	LabelOpacity    = 0.55

	pathFadeFloor     = 0.12
	endpointFadeFloor = 0.10
	labelFadeFloor    = 0.10

	// pulsePeriod sets the end-B shimmer speed while drawing; the path length
	// offsets the phase so concurrent links shimmer out of step.
	pulsePeriod     = 220.0
	pulseLengthBias = 90.0
)

// Link is a transient animated arc between two projected points. It is
// owned by a LinkEngine; composers only see its ID.
type Link struct {
	ID          LinkID
	From        model.City
	To          model.City
	A           model.PlanePoint
	B           model.PlanePoint
	Length      float64
	BaseOpacity float64
	StrokeWidth float64
	Label       string
	Born        time.Duration
	Durations   Durations
}

// Path returns the arc geometry of the link.
func (l *Link) Path() model.Path {
	return ArcPath(l.A, l.B)
}

// HasLabel reports whether a destination label is attached.
func (l *Link) HasLabel() bool {
	return l.Label != ""
}

// LinkFrame is the per-tick visual state of a live link.
type LinkFrame struct {
	ID    LinkID
	Phase Phase

	// Remaining is the undrawn fraction of the path, 1 at birth and 0 once
	// fully drawn. DashOffset is Remaining scaled to the path length.
	Remaining  float64
	DashOffset float64

	PathOpacity  float64
	StartOpacity float64
	EndOpacity   float64
	LabelOpacity float64
}

// Frame derives the link's visual state at engine time now.
func (l *Link) Frame(now time.Duration) LinkFrame {
	age := now - l.Born
	f := LinkFrame{
		ID:           l.ID,
		Phase:        PhaseOf(age, l.Durations),
		PathOpacity:  l.BaseOpacity,
		StartOpacity: EndpointOpacity,
		EndOpacity:   EndpointOpacity,
		LabelOpacity: LabelOpacity,
	}

	switch f.Phase {
	case PhaseDrawing:
		t := 1.0
		if l.Durations.Draw > 0 {
			t = float64(age) / float64(l.Durations.Draw)
		}
		f.Remaining = Clamp(1-t, 0, 1)
		f.DashOffset = l.Length * f.Remaining

		pulse := 0.55 + 0.45*math.Sin(ms(age)/pulsePeriod+l.Length/pulseLengthBias)
		f.EndOpacity = 0.45 + 0.35*pulse

	case PhaseHolding:
		// Fully drawn at base opacity.

	case PhaseFading:
		fadeAge := age - (l.Durations.Draw + l.Durations.Hold)
		o := 0.0
		if l.Durations.Fade > 0 {
			o = Clamp(1-float64(fadeAge)/float64(l.Durations.Fade), 0, 1)
		}
		f.PathOpacity = pathFadeFloor + (l.BaseOpacity-pathFadeFloor)*o
		f.StartOpacity = endpointFadeFloor + (EndpointOpacity-endpointFadeFloor)*o
		f.EndOpacity = f.StartOpacity
		f.LabelOpacity = labelFadeFloor + (LabelOpacity-labelFadeFloor)*o

	case PhaseDead:
		f.PathOpacity = 0
		f.StartOpacity = 0
		f.EndOpacity = 0
		f.LabelOpacity = 0
	}
	return f
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMS(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}
