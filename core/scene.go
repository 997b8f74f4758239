package core

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/signalsfoundry/strategic-map/model"
)

// SceneParams are the generation-time inputs besides the random stream.
type SceneParams struct {
	Seed    string
	Density float64
	Orbits  int
}

// landmass is a stylised continent-ish blob placed on the default canvas.
type landmass struct {
	cx, cy, rx, ry float64
	points         int
	jag            float64
}

var landmasses = []landmass{
	{cx: 260, cy: 260, rx: 210, ry: 130, points: 18, jag: 0.22},
	{cx: 330, cy: 420, rx: 120, ry: 170, points: 16, jag: 0.25},
	{cx: 560, cy: 260, rx: 260, ry: 140, points: 22, jag: 0.20},
	{cx: 585, cy: 425, rx: 170, ry: 170, points: 18, jag: 0.22},
	{cx: 815, cy: 520, rx: 170, ry: 90, points: 16, jag: 0.18},
	{cx: 740, cy: 330, rx: 110, ry: 70, points: 14, jag: 0.20},
	{cx: 930, cy: 250, rx: 80, ry: 60, points: 12, jag: 0.18},
	{cx: 520, cy: 575, rx: 420, ry: 60, points: 20, jag: 0.10},
}

var graticuleLabels = []model.GeoPoint{
	{Lat: 60, Lon: -120}, {Lat: 30, Lon: 0}, {Lat: 0, Lon: 80}, {Lat: -30, Lon: -40},
}

const (
	gridMinor     = 20.0
	gridMajor     = 100.0
	markersPerDen = 8
	contourRings  = 2
	exclusionZone = 6

	orbitStep = 2 * time.Minute
)

// GenerateScene runs one generation pass. Layers are drawn in a fixed order
// (grid, coasts, HUD, orbit tracks) and each consumes rng in a fixed order,
// so the same seed and params always produce the same scene.
func GenerateScene(rng *Stream, p SceneParams) *model.Scene {
	proj := DefaultProjection
	scene := &model.Scene{
		Seed:   p.Seed,
		Width:  proj.W,
		Height: proj.H,
	}
	scene.Grid = drawGrid(rng, proj, p.Density)
	scene.Map = drawCoasts(rng, proj)
	scene.HUD = drawHUD(rng, p.Seed)
	scene.Map = append(scene.Map, drawOrbits(rng, proj, p.Orbits)...)
	return scene
}

func drawGrid(rng *Stream, proj Projection, density float64) []model.Primitive {
	var out []model.Primitive

	minor := model.Style{Stroke: model.Phosphor(0.07), StrokeWidth: 1}
	major := model.Style{Stroke: model.Phosphor(0.14), StrokeWidth: 1.2}
	for _, g := range []struct {
		step  float64
		style model.Style
	}{{gridMinor, minor}, {gridMajor, major}} {
		for x := 0.0; x <= proj.W; x += g.step {
			out = append(out, model.Line{A: model.PlanePoint{X: x}, B: model.PlanePoint{X: x, Y: proj.H}, Style: g.style})
		}
		for y := 0.0; y <= proj.H; y += g.step {
			out = append(out, model.Line{A: model.PlanePoint{Y: y}, B: model.PlanePoint{X: proj.W, Y: y}, Style: g.style})
		}
	}

	// Crosshair markers.
	hair := model.Style{Stroke: model.Phosphor(0.18), StrokeWidth: 1}
	ring := model.Style{Stroke: model.Phosphor(0.10), StrokeWidth: 1}
	n := int(math.Floor(markersPerDen * density))
	for i := 0; i < n; i++ {
		c := model.PlanePoint{
			X: float64(rng.RangeInt(80, 920)),
			Y: float64(rng.RangeInt(80, 620)),
		}
		s := rng.RangeFloat(10, 26)
		out = append(out,
			model.Line{A: c.Add(-s, 0), B: c.Add(s, 0), Style: hair},
			model.Line{A: c.Add(0, -s), B: c.Add(0, s), Style: hair},
			model.Circle{Center: c, R: rng.RangeFloat(14, 28), Style: ring},
		)
	}
	return out
}

func drawGraticule(proj Projection) []model.Primitive {
	var out []model.Primitive
	style := model.Style{Stroke: model.Phosphor(0.08), StrokeWidth: 1, DashArray: []float64{3, 5}}

	for lat := -75.0; lat <= 75; lat += 15 {
		y := proj.Project(lat, 0).Y
		out = append(out, model.Line{A: model.PlanePoint{Y: y}, B: model.PlanePoint{X: proj.W, Y: y}, Style: style})
	}
	for lon := -180.0; lon <= 180; lon += 20 {
		x := proj.Project(0, lon).X
		out = append(out, model.Line{A: model.PlanePoint{X: x}, B: model.PlanePoint{X: x, Y: proj.H}, Style: style})
	}

	label := model.Style{Fill: model.Phosphor(0.35), FontSize: 11}
	for _, g := range graticuleLabels {
		pt := proj.ProjectGeo(g)
		out = append(out, model.Text{At: pt.Add(6, -6), Content: coordLabel(g), Style: label})
	}
	return out
}

// coordLabel formats a whole-degree coordinate as e.g. "30S 40W".
func coordLabel(g model.GeoPoint) string {
	ns, ew := "N", "E"
	if g.Lat < 0 {
		ns = "S"
	}
	if g.Lon < 0 {
		ew = "W"
	}
	return strconv.Itoa(int(math.Abs(g.Lat))) + ns + " " + strconv.Itoa(int(math.Abs(g.Lon))) + ew
}

func drawCoasts(rng *Stream, proj Projection) []model.Primitive {
	out := drawGraticule(proj)

	coast := model.Style{Stroke: model.Phosphor(0.20), Fill: model.Phosphor(0.02), StrokeWidth: 1.2}
	contour := model.Style{Stroke: model.Phosphor(0.10), StrokeWidth: 1}
	for _, m := range landmasses {
		center := model.PlanePoint{X: m.cx, Y: m.cy}

		outline := Blob(rng, center, m.rx, m.ry, m.points, m.jag)
		outline.Style = coast
		out = append(out, outline)

		for _, r := range ContourRings(rng, center, m.rx, m.ry, m.points, m.jag, contourRings) {
			r.Style = contour
			out = append(out, r)
		}
	}

	zone := model.Style{Stroke: model.Phosphor(0.10), StrokeWidth: 1, DashArray: []float64{4, 6}}
	for i := 0; i < exclusionZone; i++ {
		c := model.PlanePoint{X: rng.RangeFloat(140, 860), Y: rng.RangeFloat(120, 580)}
		out = append(out, model.Circle{Center: c, R: rng.RangeFloat(26, 60), Style: zone})
	}
	return out
}

var hudCorners = [][6]float64{
	{20, 20, 120, 20, 20, 120},
	{980, 20, 880, 20, 980, 120},
	{20, 680, 120, 680, 20, 580},
	{980, 680, 880, 680, 980, 580},
}

type hudBlock struct {
	x, y, w, h float64
	title      string
}

var hudBlocks = []hudBlock{
	{x: 40, y: 560, w: 310, h: 110, title: "SYSTEM STATUS"},
	{x: 650, y: 560, w: 310, h: 110, title: "ACTIVE LINKS"},
}

// statusLines each draw what they need from rng when rendered.
var statusLines = []func(*Stream) string{
	func(r *Stream) string { return "CORE: " + choose(r, "ONLINE", "ONLINE", "DEGRADED") },
	func(r *Stream) string { return fmt.Sprintf("MEM: %d%%", r.RangeInt(62, 98)) },
	func(r *Stream) string { return fmt.Sprintf("IO: %d OPS", r.RangeInt(120, 980)) },
	func(r *Stream) string { return "LINK: " + choose(r, "STABLE", "STABLE", "NOISY") },
	func(r *Stream) string { return "AUTH: " + choose(r, "OK", "OK", "REVIEW") },
	func(r *Stream) string { return "TRACE: " + choose(r, "IDLE", "RUN", "RUN") },
}

func choose(r *Stream, items ...string) string {
	v, err := Pick(r, items)
	if err != nil {
		return ""
	}
	return v
}

func drawHUD(rng *Stream, seed string) []model.Primitive {
	var out []model.Primitive

	bracket := model.Style{Stroke: model.Phosphor(0.22), StrokeWidth: 2}
	for _, c := range hudCorners {
		out = append(out, model.Polyline{
			Points: []model.PlanePoint{{X: c[0], Y: c[1]}, {X: c[2], Y: c[3]}, {X: c[0], Y: c[1]}, {X: c[4], Y: c[5]}},
			Style:  bracket,
		})
	}

	frame := model.Style{Stroke: model.Phosphor(0.22), Fill: model.Phosphor(0.02), StrokeWidth: 1.2}
	title := model.Style{Fill: model.Phosphor(0.75), FontSize: 13}
	line := model.Style{Fill: model.Phosphor(0.55), FontSize: 12}
	for _, b := range hudBlocks {
		out = append(out,
			model.Rect{Origin: model.PlanePoint{X: b.x, Y: b.y}, W: b.w, H: b.h, Style: frame},
			model.Text{At: model.PlanePoint{X: b.x + 10, Y: b.y + 20}, Content: b.title, Style: title},
		)
		for i := 0; i < 5; i++ {
			status := statusLines[rng.RangeInt(0, len(statusLines)-1)](rng)
			out = append(out, model.Text{
				At:      model.PlanePoint{X: b.x + 10, Y: b.y + 42 + float64(i)*16},
				Content: status,
				Style:   line,
			})
		}
	}

	footer := fmt.Sprintf("SIMULATION MODE: GLOBAL   PROTOCOL: %s", choose(rng, "ALPHA", "BRAVO", "DELTA", "SIGMA"))
	footer += fmt.Sprintf("   CHANNEL: %d", rng.RangeInt(1, 9))
	out = append(out,
		model.Text{At: model.PlanePoint{X: 40, Y: 530}, Content: footer, Style: model.Style{Fill: model.Phosphor(0.35), FontSize: 12}},
		model.Text{At: model.PlanePoint{X: 40, Y: 48}, Content: "SEED: " + seed, Style: model.Style{Fill: model.Phosphor(0.55), FontSize: 12}},
	)
	return out
}

// drawOrbits draws satellite ground tracks. Per track the stream yields, in
// order: inclination, RAAN, mean anomaly, mean motion, epoch offset.
func drawOrbits(rng *Stream, proj Projection, count int) []model.Primitive {
	var out []model.Primitive

	trail := model.Style{Stroke: model.Phosphor(0.16), StrokeWidth: 1, DashArray: []float64{2, 4}}
	marker := model.Style{Fill: model.Phosphor(0.6)}
	label := model.Style{Fill: model.Phosphor(0.35), FontSize: 10}
	for i := 0; i < count; i++ {
		el := OrbitElements{
			CatalogNumber: 90001 + i,
			Inclination:   rng.RangeFloat(35, 98),
			RAAN:          rng.RangeFloat(0, 360),
			MeanAnomaly:   rng.RangeFloat(0, 360),
			MeanMotion:    rng.RangeFloat(14.2, 15.6),
		}
		start := TrackEpoch.Add(time.Duration(rng.RangeInt(0, 1439)) * time.Minute)

		track := NewTrackModel(el).Track(start, el.Period(), orbitStep)
		for _, seg := range track.Segments(proj) {
			out = append(out, model.Polyline{Points: seg, Style: trail})
		}
		if n := len(track.Points); n > 0 {
			pos := proj.ProjectGeo(track.Points[n-1])
			out = append(out,
				model.Circle{Center: pos, R: 3, Style: marker},
				model.Text{At: pos.Add(6, 12), Content: fmt.Sprintf("SAT-%05d", el.CatalogNumber), Style: label},
			)
		}
	}
	return out
}
