package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/strategic-map/model"
)

func TestProjectCorners(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     model.PlanePoint
	}{
		{lat: 90, lon: -180, want: model.PlanePoint{X: 0, Y: 0}},
		{lat: -90, lon: 180, want: model.PlanePoint{X: 1000, Y: 700}},
		{lat: 0, lon: 0, want: model.PlanePoint{X: 500, Y: 350}},
		{lat: 45, lon: 90, want: model.PlanePoint{X: 750, Y: 175}},
	}
	for _, tc := range cases {
		if got := Project(tc.lat, tc.lon); got != tc.want {
			t.Fatalf("Project(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}

func TestProjectOutOfRangeLandsOffCanvas(t *testing.T) {
	p := Project(100, 200)
	if p.Y >= 0 || p.X <= CanvasWidth {
		t.Fatalf("Project(100, 200) = %v, want off-canvas", p)
	}
}

func TestProjectionScalesWithCanvas(t *testing.T) {
	proj := Projection{W: 360, H: 180}
	got := proj.ProjectGeo(model.GeoPoint{Lat: 10, Lon: 20})
	if math.Abs(got.X-200) > 1e-9 || math.Abs(got.Y-80) > 1e-9 {
		t.Fatalf("ProjectGeo = %v, want (200, 80)", got)
	}
}

func TestClampAndDistance(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Fatalf("Clamp misbehaves")
	}
	if d := Distance(model.PlanePoint{}, model.PlanePoint{X: 3, Y: 4}); d != 5 {
		t.Fatalf("Distance = %v, want 5", d)
	}
}

func TestNormalizeLon(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		180:  -180,
		-180: -180,
		190:  -170,
		-190: 170,
		540:  -180,
	}
	for in, want := range cases {
		if got := normalizeLon(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("normalizeLon(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestProjectIsMonotonic(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		prev := Project(lat, -180)
		for lon := -179.5; lon <= 180; lon += 0.5 {
			p := Project(lat, lon)
			if p.X <= prev.X {
				t.Fatalf("x not increasing at lat=%v lon=%v: %v <= %v", lat, lon, p.X, prev.X)
			}
			if p.Y != prev.Y {
				t.Fatalf("y depends on longitude at lat=%v lon=%v", lat, lon)
			}
			prev = p
		}
	}
	for lon := -180.0; lon <= 180; lon += 15 {
		prev := Project(-90, lon)
		for lat := -89.5; lat <= 90; lat += 0.5 {
			p := Project(lat, lon)
			if p.Y >= prev.Y {
				t.Fatalf("y not decreasing at lat=%v lon=%v: %v >= %v", lat, lon, p.Y, prev.Y)
			}
			if p.X != prev.X {
				t.Fatalf("x depends on latitude at lat=%v lon=%v", lat, lon)
			}
			prev = p
		}
	}
}
