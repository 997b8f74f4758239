package core

import (
	"math"

	"github.com/signalsfoundry/strategic-map/model"
)

const (
	// contourStep is how much each inner ring shrinks the blob radii.
	contourStep = 0.18
	// contourJag scales jaggedness for inner rings so they read as smoother.
	contourJag = 0.65

	arcLiftFactor = 0.22
	arcLiftMin    = 30.0
	arcLiftMax    = 160.0

	// pathLengthFactor turns a chord length into a rough arc length for dash
	// animation.
	pathLengthFactor = 1.2
)

// Blob synthesises a closed, jittered polygon around an ellipse. Vertices sit
// at equal angular spacing; each vertex radius is scaled by 1±jag, drawing
// one value from s per vertex in vertex order. points <= 0 yields an empty
// path and consumes nothing.
func Blob(s *Stream, center model.PlanePoint, rx, ry float64, points int, jag float64) model.Path {
	if points <= 0 {
		return model.Path{}
	}

	pts := make([]model.PlanePoint, 0, points)
	for i := 0; i < points; i++ {
		a := float64(i) / float64(points) * math.Pi * 2
		n := 1 + s.RangeFloat(-jag, jag)
		pts = append(pts, model.PlanePoint{
			X: center.X + math.Cos(a)*rx*n,
			Y: center.Y + math.Sin(a)*ry*n,
		})
	}

	cmds := make([]model.PathCommand, 0, points+2)
	cmds = append(cmds, model.PathCommand{Op: model.MoveTo, Points: []model.PlanePoint{pts[0]}})
	for _, p := range pts[1:] {
		cmds = append(cmds, model.PathCommand{Op: model.LineTo, Points: []model.PlanePoint{p}})
	}
	cmds = append(cmds,
		model.PathCommand{Op: model.LineTo, Points: []model.PlanePoint{pts[0]}},
		model.PathCommand{Op: model.Close},
	)
	return model.Path{Commands: cmds}
}

// ContourRings returns rings concentric topographic outlines inside a blob.
// Ring k (1-based) shrinks the radii by contourStep·k and softens the
// jaggedness.
func ContourRings(s *Stream, center model.PlanePoint, rx, ry float64, points int, jag float64, rings int) []model.Path {
	out := make([]model.Path, 0, max(rings, 0))
	for i := 1; i <= rings; i++ {
		k := 1 - float64(i)*contourStep
		out = append(out, Blob(s, center, rx*k, ry*k, points, jag*contourJag))
	}
	return out
}

// ArcControl returns the quadratic control point for a link arc: the chord
// midpoint lifted upward by a distance proportional to the chord, clamped.
func ArcControl(a, b model.PlanePoint) model.PlanePoint {
	lift := Clamp(Distance(a, b)*arcLiftFactor, arcLiftMin, arcLiftMax)
	return model.PlanePoint{
		X: (a.X + b.X) / 2,
		Y: (a.Y+b.Y)/2 - lift,
	}
}

// ArcPath returns the quadratic curve from a to b.
func ArcPath(a, b model.PlanePoint) model.Path {
	return model.Path{Commands: []model.PathCommand{
		{Op: model.MoveTo, Points: []model.PlanePoint{a}},
		{Op: model.QuadTo, Points: []model.PlanePoint{ArcControl(a, b), b}},
	}}
}

// PathLengthApprox is a cheap stand-in for the arc length of ArcPath(a, b).
func PathLengthApprox(a, b model.PlanePoint) float64 {
	return Distance(a, b) * pathLengthFactor
}
