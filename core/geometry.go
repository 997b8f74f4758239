package core

import (
	"math"

	"github.com/signalsfoundry/strategic-map/model"
)

// Default canvas size in canvas units.
const (
	CanvasWidth  = 1000.0
	CanvasHeight = 700.0
)

// Projection maps geographic coordinates onto a W×H canvas using an
// equirectangular mapping. Longitude grows to the right, latitude grows up
// (so y shrinks as latitude increases).
type Projection struct {
	W float64
	H float64
}

// DefaultProjection projects onto the default canvas.
var DefaultProjection = Projection{W: CanvasWidth, H: CanvasHeight}

// Project maps (lat, lon) in degrees to canvas coordinates. Values outside
// [-90,90] / [-180,180] land off-canvas rather than failing.
func (p Projection) Project(lat, lon float64) model.PlanePoint {
	return model.PlanePoint{
		X: (lon + 180) / 360 * p.W,
		Y: (90 - lat) / 180 * p.H,
	}
}

// ProjectGeo is Project for a GeoPoint.
func (p Projection) ProjectGeo(g model.GeoPoint) model.PlanePoint {
	return p.Project(g.Lat, g.Lon)
}

// Project maps (lat, lon) onto the default canvas.
func Project(lat, lon float64) model.PlanePoint {
	return DefaultProjection.Project(lat, lon)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Distance returns the straight-line distance between two canvas points.
func Distance(a, b model.PlanePoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// normalizeLon wraps a longitude in degrees into [-180, 180).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
