package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/strategic-map/model"
)

var issElements = OrbitElements{
	CatalogNumber: 25544,
	Inclination:   51.6459,
	RAAN:          115.9059,
	MeanAnomaly:   35.9198,
	MeanMotion:    15.49370953,
}

func TestOrbitElementsTLE(t *testing.T) {
	line1, line2 := issElements.TLE()
	if len(line1) != 69 || len(line2) != 69 {
		t.Fatalf("line lengths = %d/%d, want 69", len(line1), len(line2))
	}
	for _, line := range []string{line1, line2} {
		if got := tleChecksum(line[:68]); got != line[68:] {
			t.Fatalf("checksum %s does not match %q", got, line)
		}
	}
	const want2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257767"
	if line2 != want2 {
		t.Fatalf("line2 = %q\nwant    %q", line2, want2)
	}
}

func TestOrbitElementsPeriod(t *testing.T) {
	el := OrbitElements{MeanMotion: 15}
	if got := el.Period(); got != 96*time.Minute {
		t.Fatalf("Period = %v, want 96m", got)
	}
	if (OrbitElements{}).Period() != 0 {
		t.Fatalf("zero mean motion should have no period")
	}
}

// Exact orbital values belong to go-satellite; only check that the track
// moves and respects the inclination bound.
func TestTrackModelMovesWithinInclination(t *testing.T) {
	m := NewTrackModel(issElements)

	p1 := m.PositionAt(TrackEpoch)
	p2 := m.PositionAt(TrackEpoch.Add(10 * time.Minute))
	if p1 == p2 {
		t.Fatalf("expected position to change over time, got %v both times", p1)
	}

	track := m.Track(TrackEpoch, issElements.Period(), 2*time.Minute)
	if len(track.Points) < 40 {
		t.Fatalf("track has %d points, want a full orbit", len(track.Points))
	}
	for i, g := range track.Points {
		if math.Abs(g.Lat) > issElements.Inclination+1 {
			t.Fatalf("point %d latitude %v exceeds inclination", i, g.Lat)
		}
		if g.Lon < -180 || g.Lon >= 180 {
			t.Fatalf("point %d longitude %v not normalised", i, g.Lon)
		}
	}
}

func TestTrackSampling(t *testing.T) {
	m := NewTrackModel(issElements)
	if got := m.Track(TrackEpoch, 10*time.Minute, 2*time.Minute); len(got.Points) != 6 {
		t.Fatalf("points = %d, want 6", len(got.Points))
	}
	if got := m.Track(TrackEpoch, time.Hour, 0); len(got.Points) != 0 {
		t.Fatalf("zero step produced %d points", len(got.Points))
	}
}

func TestGroundTrackSplitsAtAntimeridian(t *testing.T) {
	gt := GroundTrack{Points: []model.GeoPoint{
		{Lat: 10, Lon: 150},
		{Lat: 12, Lon: 170},
		{Lat: 14, Lon: -170},
		{Lat: 16, Lon: -150},
		{Lat: 18, Lon: -130},
	}}
	segs := gt.Segments(DefaultProjection)
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if len(segs[0]) != 2 || len(segs[1]) != 3 {
		t.Fatalf("segment sizes = %d/%d, want 2/3", len(segs[0]), len(segs[1]))
	}

	lonely := GroundTrack{Points: []model.GeoPoint{{Lon: 179}, {Lon: -179}}}
	if got := lonely.Segments(DefaultProjection); len(got) != 0 {
		t.Fatalf("single-point segments should be dropped, got %d", len(got))
	}
}
