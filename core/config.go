package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Limits applied by Config.Normalize.
const (
	MaxLinks   = 64
	MaxOrbits  = 8
	MaxDensity = 8.0
)

// Config holds the user-tunable knobs. Seed, Density and Orbits are read on
// Regenerate; Links and Flicker are re-read on every tick.
type Config struct {
	// Seed names the generation. Blank means "pick a random 6-digit seed".
	Seed string
	// Density scales procedural marker counts.
	Density float64
	// Links is the target number of concurrent link arcs; 0 disables them.
	Links int
	// Flicker is the screen flicker/jitter intensity in [0,1]; 0 is steady.
	Flicker float64
	// Orbits is the number of satellite ground tracks drawn.
	Orbits int
}

// DefaultConfig returns the settings the CLIs start from.
func DefaultConfig() Config {
	return Config{
		Density: 1,
		Links:   14,
		Flicker: 0.35,
		Orbits:  2,
	}
}

// Normalize clamps every field into its supported range and trims the seed.
func (c Config) Normalize() Config {
	c.Seed = strings.TrimSpace(c.Seed)
	c.Density = Clamp(c.Density, 0, MaxDensity)
	c.Flicker = Clamp(c.Flicker, 0, 1)
	c.Links = min(max(c.Links, 0), MaxLinks)
	c.Orbits = min(max(c.Orbits, 0), MaxOrbits)
	return c
}

// RandomSeed returns a 6-digit, zero-padded decimal seed drawn from r.
func RandomSeed(r *rand.Rand) string {
	if r == nil {
		return fmt.Sprintf("%06d", rand.IntN(1_000_000))
	}
	return fmt.Sprintf("%06d", r.IntN(1_000_000))
}
