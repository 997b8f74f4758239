package core

import (
	"math/rand/v2"
	"time"
)

// Sweep geometry in canvas units.
const (
	SweepStart = -300.0
	SweepEnd   = 1300.0
	SweepStep  = 18.0
)

// Effects is the per-tick screen treatment: scan sweep position, flicker,
// jitter, noise shimmer and the HUD clock.
type Effects struct {
	SweepX       float64
	Opacity      float64
	JitterX      float64
	JitterY      float64
	NoiseOpacity float64
	Clock        string
}

// EffectsEngine advances the screen effects. Flicker and noise are purely
// cosmetic and draw from their own entropy source, never from the seeded
// stream, so they cannot disturb scene reproducibility.
type EffectsEngine struct {
	entropy *rand.Rand
	current Effects
}

// NewEffectsEngine builds an engine drawing from entropy. A nil source
// falls back to a randomly seeded PCG.
func NewEffectsEngine(entropy *rand.Rand) *EffectsEngine {
	if entropy == nil {
		entropy = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e := &EffectsEngine{entropy: entropy}
	e.Reset()
	return e
}

// Reset rewinds the sweep and clears flicker.
func (e *EffectsEngine) Reset() {
	e.current = Effects{SweepX: SweepStart, Opacity: 1, NoiseOpacity: 0.04, Clock: e.current.Clock}
}

// Current returns the latest effects without advancing them.
func (e *EffectsEngine) Current() Effects {
	return e.current
}

// SetClock updates only the HUD clock; it keeps running while paused.
func (e *EffectsEngine) SetClock(wall time.Time) Effects {
	e.current.Clock = wall.Format("15:04:05")
	return e.current
}

// Step advances one tick at the given flicker intensity.
func (e *EffectsEngine) Step(flicker float64, wall time.Time) Effects {
	fx := &e.current

	fx.SweepX += SweepStep
	if fx.SweepX > SweepEnd {
		fx.SweepX = SweepStart
	}

	fx.Opacity = 1 - e.entropy.Float64()*flicker*0.18

	j := 0.0
	if e.entropy.Float64() < flicker*0.25 {
		j = e.entropy.Float64()*2 - 1
	}
	fx.JitterX, fx.JitterY = j, -j

	fx.NoiseOpacity = 0.04 + e.entropy.Float64()*0.06
	fx.Clock = wall.Format("15:04:05")
	return *fx
}
