package viewer

import (
	"image/color"
	"math"

	"github.com/signalsfoundry/strategic-map/model"
)

// quadSteps is how many line segments approximate one quadratic curve.
const quadSteps = 16

// segment is a straight piece of a flattened, dashed outline.
type segment struct {
	A, B model.PlanePoint
}

// flatten converts path commands into polylines, one per subpath.
func flatten(p model.Path) [][]model.PlanePoint {
	var (
		out   [][]model.PlanePoint
		cur   []model.PlanePoint
		start model.PlanePoint
	)
	last := func() model.PlanePoint { return cur[len(cur)-1] }
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}

	for _, cmd := range p.Commands {
		switch cmd.Op {
		case model.MoveTo:
			if len(cmd.Points) < 1 {
				continue
			}
			flush()
			start = cmd.Points[0]
			cur = []model.PlanePoint{start}
		case model.LineTo:
			if len(cmd.Points) < 1 || len(cur) == 0 {
				continue
			}
			cur = append(cur, cmd.Points[0])
		case model.QuadTo:
			if len(cmd.Points) < 2 || len(cur) == 0 {
				continue
			}
			p0, c, p1 := last(), cmd.Points[0], cmd.Points[1]
			for i := 1; i <= quadSteps; i++ {
				t := float64(i) / quadSteps
				u := 1 - t
				cur = append(cur, model.PlanePoint{
					X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
					Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
				})
			}
		case model.Close:
			if len(cur) == 0 {
				continue
			}
			cur = append(cur, start)
			flush()
		}
	}
	flush()
	return out
}

// dashSegments cuts a polyline into the visible pieces of a dash pattern
// that starts offset units into the pattern. An empty or all-zero pattern
// yields the polyline unchanged.
func dashSegments(pts []model.PlanePoint, dash []float64, offset float64) []segment {
	var out []segment
	total := 0.0
	for _, d := range dash {
		total += math.Max(d, 0)
	}
	if total <= 0 {
		for i := 1; i < len(pts); i++ {
			out = append(out, segment{A: pts[i-1], B: pts[i]})
		}
		return out
	}

	pos := math.Mod(offset, total)
	if pos < 0 {
		pos += total
	}
	idx := 0
	for pos >= math.Max(dash[idx], 0) {
		pos -= math.Max(dash[idx], 0)
		idx = (idx + 1) % len(dash)
	}
	remaining := math.Max(dash[idx], 0) - pos

	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := math.Hypot(b.X-a.X, b.Y-a.Y)
		t := 0.0
		for t < segLen {
			step := math.Min(remaining, segLen-t)
			if idx%2 == 0 && step > 0 {
				out = append(out, segment{A: lerp(a, b, t/segLen), B: lerp(a, b, (t+step)/segLen)})
			}
			t += step
			remaining -= step
			if remaining <= 0 {
				idx = (idx + 1) % len(dash)
				remaining = math.Max(dash[idx], 0)
			}
		}
	}
	return out
}

func lerp(a, b model.PlanePoint, t float64) model.PlanePoint {
	return model.PlanePoint{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// toColor applies a style opacity on top of the colour's own alpha.
func toColor(c model.Color, opacity float64) color.NRGBA {
	a := math.Max(0, math.Min(1, c.A*opacity))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(a * 255))}
}
