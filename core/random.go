package core

import (
	"errors"
	"math"
	"math/bits"
	"unicode/utf16"
)

// ErrEmptyCandidates is returned when a pick is attempted over an empty
// collection. Production code never does this; it is a caller bug.
var ErrEmptyCandidates = errors.New("pick from empty candidate set")

// Stream is a deterministic pseudo-random sequence derived from a seed
// string. The same seed always yields the same infinite sequence; a stream
// can only be restarted by constructing a new one from the same seed.
//
// The generator is sfc32 seeded by four words of an xmur3 string hash. All
// arithmetic wraps at 32 bits, so output matches any other sfc32/xmur3
// implementation bit for bit.
type Stream struct {
	a, b, c, d uint32
}

// NewStream derives a stream from seed.
func NewStream(seed string) *Stream {
	h := newSeedHash(seed)
	return &Stream{a: h.next(), b: h.next(), c: h.next(), d: h.next()}
}

// Uint32 advances the stream and returns the raw output word.
func (s *Stream) Uint32() uint32 {
	t := s.a + s.b
	s.a = s.b ^ (s.b >> 9)
	s.b = s.c + (s.c << 3)
	s.c = bits.RotateLeft32(s.c, 21)
	s.d++
	t += s.d
	s.c += t
	return t
}

// Next returns the next value in [0, 1).
func (s *Stream) Next() float64 {
	return float64(s.Uint32()) / 4294967296.0
}

// RangeFloat returns a value linearly interpolated between lo and hi.
func (s *Stream) RangeFloat(lo, hi float64) float64 {
	return lo + (hi-lo)*s.Next()
}

// RangeInt returns an integer in [lo, hi], both bounds inclusive.
func (s *Stream) RangeInt(lo, hi int) int {
	return int(math.Floor(s.RangeFloat(float64(lo), float64(hi)+1)))
}

// PickIndex returns a uniform index in [0, n).
func PickIndex(s *Stream, n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmptyCandidates
	}
	return int(math.Floor(s.Next() * float64(n))), nil
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](s *Stream, items []T) (T, error) {
	idx, err := PickIndex(s, len(items))
	if err != nil {
		var zero T
		return zero, err
	}
	return items[idx], nil
}

// seedHash is the xmur3 avalanche hash; every call to next mixes and emits
// one more derived word.
type seedHash struct {
	h uint32
}

func newSeedHash(seed string) *seedHash {
	// Hash UTF-16 code units, the way JavaScript strings are indexed.
	units := utf16.Encode([]rune(seed))
	h := uint32(1779033703) ^ uint32(len(units))
	for _, u := range units {
		h = (h ^ uint32(u)) * 3432918353
		h = bits.RotateLeft32(h, 13)
	}
	return &seedHash{h: h}
}

func (sh *seedHash) next() uint32 {
	h := sh.h
	h = (h ^ (h >> 16)) * 2246822507
	h = (h ^ (h >> 13)) * 3266489909
	h ^= h >> 16
	sh.h = h
	return h
}
