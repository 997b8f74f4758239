package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/strategic-map/model"
)

func TestBlobStructure(t *testing.T) {
	center := model.PlanePoint{X: 400, Y: 300}
	p := Blob(NewStream("blob"), center, 100, 50, 10, 0.2)

	if len(p.Commands) != 12 {
		t.Fatalf("commands = %d, want 12 (M, 9 L, closing L, Z)", len(p.Commands))
	}
	if p.Commands[0].Op != model.MoveTo || p.Commands[11].Op != model.Close {
		t.Fatalf("unexpected framing ops %v..%v", p.Commands[0].Op, p.Commands[11].Op)
	}
	if p.Commands[10].Points[0] != p.Commands[0].Points[0] {
		t.Fatalf("blob does not return to its first vertex")
	}

	// Every vertex stays within 1±jag of the ellipse.
	for i := 0; i < 10; i++ {
		pt := p.Commands[i].Points[0]
		a := float64(i) / 10 * 2 * math.Pi
		var n float64
		if math.Abs(math.Cos(a)) > 0.1 {
			n = (pt.X - center.X) / (math.Cos(a) * 100)
		} else {
			n = (pt.Y - center.Y) / (math.Sin(a) * 50)
		}
		if n < 0.8-1e-9 || n > 1.2+1e-9 {
			t.Fatalf("vertex %d scale %v outside [0.8,1.2]", i, n)
		}
	}
}

func TestBlobConsumesOneDrawPerVertex(t *testing.T) {
	s := NewStream("draws")
	Blob(s, model.PlanePoint{}, 10, 10, 7, 0.3)

	ref := NewStream("draws")
	for i := 0; i < 7; i++ {
		ref.Next()
	}
	if s.Uint32() != ref.Uint32() {
		t.Fatalf("Blob consumed a different number of draws than vertices")
	}
}

func TestBlobWithoutPoints(t *testing.T) {
	s := NewStream("empty")
	if p := Blob(s, model.PlanePoint{}, 10, 10, 0, 0.2); !p.Empty() {
		t.Fatalf("Blob with 0 points = %+v, want empty", p)
	}
	if s.Uint32() != NewStream("empty").Uint32() {
		t.Fatalf("empty blob consumed the stream")
	}
}

func TestBlobIsDeterministic(t *testing.T) {
	a := Blob(NewStream("x"), model.PlanePoint{X: 5, Y: 5}, 40, 20, 12, 0.25)
	b := Blob(NewStream("x"), model.PlanePoint{X: 5, Y: 5}, 40, 20, 12, 0.25)
	if a.D() != b.D() {
		t.Fatalf("same seed produced different blobs")
	}
}

func TestContourRingsShrink(t *testing.T) {
	center := model.PlanePoint{X: 200, Y: 200}
	rings := ContourRings(NewStream("rings"), center, 100, 100, 8, 0, 2)
	if len(rings) != 2 {
		t.Fatalf("rings = %d, want 2", len(rings))
	}
	// With zero jag the first vertex sits exactly on the scaled x radius.
	for i, want := range []float64{82, 64} {
		got := rings[i].Commands[0].Points[0].X - center.X
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("ring %d radius = %v, want %v", i+1, got, want)
		}
	}
	if got := ContourRings(NewStream("rings"), center, 10, 10, 8, 0, 0); len(got) != 0 {
		t.Fatalf("zero rings produced %d paths", len(got))
	}
}

func TestArcControlLiftIsClamped(t *testing.T) {
	cases := []struct {
		name string
		a, b model.PlanePoint
		lift float64
	}{
		{name: "short chord", a: model.PlanePoint{X: 0, Y: 100}, b: model.PlanePoint{X: 50, Y: 100}, lift: 30},
		{name: "mid chord", a: model.PlanePoint{X: 0, Y: 300}, b: model.PlanePoint{X: 500, Y: 300}, lift: 110},
		{name: "long chord", a: model.PlanePoint{X: 0, Y: 400}, b: model.PlanePoint{X: 1000, Y: 400}, lift: 160},
	}
	for _, tc := range cases {
		c := ArcControl(tc.a, tc.b)
		wantX := (tc.a.X + tc.b.X) / 2
		if c.X != wantX || math.Abs((tc.a.Y-c.Y)-tc.lift) > 1e-9 {
			t.Fatalf("%s: control = %v, want x=%v lift=%v", tc.name, c, wantX, tc.lift)
		}
	}
}

func TestArcPathAndLength(t *testing.T) {
	a, b := model.PlanePoint{X: 100, Y: 100}, model.PlanePoint{X: 400, Y: 500}
	p := ArcPath(a, b)
	if len(p.Commands) != 2 || p.Commands[0].Op != model.MoveTo || p.Commands[1].Op != model.QuadTo {
		t.Fatalf("unexpected arc commands %+v", p.Commands)
	}
	if p.Commands[1].Points[1] != b {
		t.Fatalf("arc ends at %v, want %v", p.Commands[1].Points[1], b)
	}
	if got := PathLengthApprox(a, b); math.Abs(got-600) > 1e-9 {
		t.Fatalf("PathLengthApprox = %v, want 600", got)
	}
}
