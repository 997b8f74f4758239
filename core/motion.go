package core

import (
	"fmt"
	"math"
	"strconv"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/strategic-map/model"
)

// Reference element set every synthetic track borrows its epoch and drag
// terms from (ISS, epoch 2021-275.59097222).
const (
	referenceLine1 = "1 %05dU 98067A   21275.59097222  .00000204  00000-0  10270-4 0  999"
	referenceEcc   = 1817 // 0.0001817, implied decimal point
	referenceArgP  = 61.3028
	referenceRev   = 25776
)

// TrackEpoch is the epoch of the reference element set.
var TrackEpoch = time.Date(2021, time.October, 2, 14, 11, 0, 0, time.UTC)

// OrbitElements are the Keplerian elements varied per synthetic satellite.
// Angles are in degrees, mean motion in revolutions per day.
type OrbitElements struct {
	CatalogNumber int
	Inclination   float64
	RAAN          float64
	MeanAnomaly   float64
	MeanMotion    float64
}

// Period returns the orbital period implied by the mean motion.
func (o OrbitElements) Period() time.Duration {
	if o.MeanMotion <= 0 {
		return 0
	}
	return time.Duration(float64(24*time.Hour) / o.MeanMotion)
}

// TLE renders the elements as a two-line element set on top of the
// reference drag terms, with valid checksums.
func (o OrbitElements) TLE() (string, string) {
	num := o.CatalogNumber % 100000
	line1 := fmt.Sprintf(referenceLine1, num)
	line2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%05d",
		num,
		o.Inclination,
		math.Mod(o.RAAN, 360),
		referenceEcc,
		referenceArgP,
		math.Mod(o.MeanAnomaly, 360),
		o.MeanMotion,
		referenceRev,
	)
	return line1 + tleChecksum(line1), line2 + tleChecksum(line2)
}

// tleChecksum is the modulo-10 sum of digits, counting '-' as one.
func tleChecksum(line string) string {
	sum := 0
	for _, r := range line {
		switch {
		case r >= '0' && r <= '9':
			sum += int(r - '0')
		case r == '-':
			sum++
		}
	}
	return strconv.Itoa(sum % 10)
}

// GroundTrack is the sub-satellite path of one orbit.
type GroundTrack struct {
	Elements OrbitElements
	Start    time.Time
	Points   []model.GeoPoint
}

// TrackModel propagates OrbitElements with SGP4.
type TrackModel struct {
	elements OrbitElements
	sat      satellite.Satellite
}

// NewTrackModel builds an SGP4 propagator for the given elements.
func NewTrackModel(el OrbitElements) *TrackModel {
	line1, line2 := el.TLE()
	return &TrackModel{
		elements: el,
		sat:      satellite.TLEToSat(line1, line2, satellite.GravityWGS72),
	}
}

// PositionAt returns the sub-satellite point at t.
// go-satellite works in radians; longitude is wrapped to [-180, 180).
func (m *TrackModel) PositionAt(t time.Time) model.GeoPoint {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	_, _, ll := satellite.ECIToLLA(posECI, gmst)

	const radToDeg = 180.0 / math.Pi
	return model.GeoPoint{
		Lat: ll.Latitude * radToDeg,
		Lon: normalizeLon(ll.Longitude * radToDeg),
	}
}

// Track samples the ground track from start over span at the given step.
func (m *TrackModel) Track(start time.Time, span, step time.Duration) GroundTrack {
	gt := GroundTrack{Elements: m.elements, Start: start}
	if step <= 0 || span < 0 {
		return gt
	}
	for t := time.Duration(0); t <= span; t += step {
		gt.Points = append(gt.Points, m.PositionAt(start.Add(t)))
	}
	return gt
}

// Segments projects the track and splits it wherever it crosses the
// antimeridian, so no segment is drawn across the whole canvas.
func (gt GroundTrack) Segments(proj Projection) [][]model.PlanePoint {
	var (
		out  [][]model.PlanePoint
		cur  []model.PlanePoint
		prev model.GeoPoint
	)
	for i, g := range gt.Points {
		if i > 0 && math.Abs(g.Lon-prev.Lon) > 180 {
			if len(cur) > 1 {
				out = append(out, cur)
			}
			cur = nil
		}
		cur = append(cur, proj.ProjectGeo(g))
		prev = g
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}
