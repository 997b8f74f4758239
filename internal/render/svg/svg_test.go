package svg

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/kb"
	"github.com/signalsfoundry/strategic-map/model"
)

func generate(t *testing.T, seed string, orbits int) *model.Scene {
	t.Helper()
	return core.GenerateScene(core.NewStream(seed), core.SceneParams{Seed: seed, Density: 1, Orbits: orbits})
}

func encodeString(t *testing.T, scene *model.Scene) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scene))
	return buf.String()
}

func requireWellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestEncodeIsReproducible(t *testing.T) {
	first := encodeString(t, generate(t, "000001", 2))
	second := encodeString(t, generate(t, "000001", 2))
	require.Equal(t, first, second)

	other := encodeString(t, generate(t, "000002", 2))
	require.NotEqual(t, first, other)
}

func TestEncodeLayersInDrawOrder(t *testing.T) {
	doc := encodeString(t, generate(t, "000001", 1))
	requireWellFormed(t, doc)

	grid := strings.Index(doc, `<g id="gGrid">`)
	mapLayer := strings.Index(doc, `<g id="gMap">`)
	links := strings.Index(doc, `<g id="gLinks">`)
	hud := strings.Index(doc, `<g id="gHUD">`)
	sweep := strings.Index(doc, `<rect id="scanSweep"`)
	for _, idx := range []int{grid, mapLayer, links, hud, sweep} {
		require.GreaterOrEqual(t, idx, 0)
	}
	require.Less(t, grid, mapLayer)
	require.Less(t, mapLayer, links)
	require.Less(t, links, hud)
	require.Less(t, hud, sweep)

	require.Contains(t, doc, "SEED: 000001")
	require.Contains(t, doc, `data-seed="000001"`)
	require.Contains(t, doc, `x="-300"`, "static encode starts the sweep off-canvas")
}

func TestEncodeNilScene(t *testing.T) {
	doc := encodeString(t, nil)
	requireWellFormed(t, doc)
	require.Contains(t, doc, `viewBox="0 0 1000 700"`)
}

func TestEncodeEscapesText(t *testing.T) {
	scene := &model.Scene{
		Seed:  `a"b`,
		Width: 1000, Height: 700,
		HUD: []model.Primitive{
			model.Text{At: model.PlanePoint{X: 1, Y: 2}, Content: "A<B & C", Style: model.Style{Fill: model.Phosphor(0.5), FontSize: 12}},
		},
	}
	doc := encodeString(t, scene)
	requireWellFormed(t, doc)
	require.Contains(t, doc, "A&lt;B &amp; C")
	require.Contains(t, doc, `data-seed="a&#34;b"`)
}

func TestEncodePrimitiveAttributes(t *testing.T) {
	scene := &model.Scene{
		Width: 1000, Height: 700,
		Grid: []model.Primitive{
			model.Line{A: model.PlanePoint{X: 0, Y: 20}, B: model.PlanePoint{X: 1000, Y: 20}, Style: model.Style{Stroke: model.Phosphor(0.07), StrokeWidth: 1}},
			model.Circle{Center: model.PlanePoint{X: 10, Y: 10}, R: 14.25, Style: model.Style{Stroke: model.Phosphor(0.1), StrokeWidth: 1}},
		},
		Map: []model.Primitive{
			model.Polyline{Points: []model.PlanePoint{{X: 1, Y: 2}, {X: 3.25, Y: 4}}, Style: model.Style{Stroke: model.Phosphor(0.16), DashArray: []float64{2, 4}}},
			model.Path{},
		},
	}
	doc := encodeString(t, scene)
	require.Contains(t, doc, `<line x1="0.0" y1="20.0" x2="1000.0" y2="20.0" fill="none" stroke="rgba(0,255,120,0.07)" stroke-width="1"/>`)
	require.Contains(t, doc, `r="14.2"`)
	require.Contains(t, doc, `points="1.0,2.0 3.2,4.0"`)
	require.Contains(t, doc, `stroke-dasharray="2.0 4.0"`)
	require.NotContains(t, doc, "<path", "empty paths are skipped")
}

func TestEncodeDistinguishesZeroOpacity(t *testing.T) {
	scene := &model.Scene{Seed: "op", Width: 100, Height: 100, Map: []model.Primitive{
		model.Circle{Center: model.PlanePoint{X: 1, Y: 1}, R: 2, Style: model.Style{Fill: model.Phosphor(1), Opacity: model.Opacity(0)}},
		model.Circle{Center: model.PlanePoint{X: 5, Y: 5}, R: 2, Style: model.Style{Fill: model.Phosphor(1)}},
	}}
	doc := encodeString(t, scene)
	require.Contains(t, doc, `<circle cx="1.0" cy="1.0" r="2.0" fill="rgba(0,255,120,1)" opacity="0.000"/>`)
	require.Contains(t, doc, `<circle cx="5.0" cy="5.0" r="2.0" fill="rgba(0,255,120,1)"/>`, "unset opacity is omitted")
}

func TestComposerRendersLinkLifecycle(t *testing.T) {
	c := NewComposer()

	a, b := core.Project(51.507, -0.128), core.Project(-1.286, 36.817)
	link := &core.Link{
		ID:          7,
		A:           a,
		B:           b,
		Length:      core.PathLengthApprox(a, b),
		BaseOpacity: 0.4,
		StrokeWidth: 1.5,
		Label:       "NAIROBI",
		Durations:   core.Durations{Draw: time.Second, Hold: time.Second, Fade: time.Second},
	}

	c.AddLink(link)
	require.Equal(t, 1, c.Len())

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	doc := buf.String()
	requireWellFormed(t, doc)
	require.Contains(t, doc, `stroke-dashoffset="`+model.FormatCoord(link.Length)+`"`, "a new link starts undrawn")
	require.Contains(t, doc, ">NAIROBI</text>")

	c.UpdateLink(link.Frame(1500 * time.Millisecond))
	buf.Reset()
	_, err = c.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `stroke-dashoffset="0.0"`)

	c.RemoveLink(link.ID)
	require.Zero(t, c.Len())
	buf.Reset()
	_, err = c.WriteTo(&buf)
	require.NoError(t, err)
	require.NotContains(t, buf.String(), "NAIROBI")
}

func TestComposerAppliesEffects(t *testing.T) {
	c := NewComposer()
	c.SetScene(generate(t, "000001", 0))
	c.SetEffects(core.Effects{SweepX: 42, Opacity: 0.9, JitterX: 0.5, JitterY: -0.5, NoiseOpacity: 0.07, Clock: "12:34:56"})

	var buf bytes.Buffer
	_, err := c.WriteTo(&buf)
	require.NoError(t, err)
	doc := buf.String()
	require.Contains(t, doc, `<g id="screen" opacity="0.900" transform="translate(0.500 -0.500)">`)
	require.Contains(t, doc, `<rect id="scanSweep" x="42"`)
	require.Contains(t, doc, `<rect id="noise" width="100%" height="100%" fill="url(#noisePat)" opacity="0.070"/>`)
	require.Contains(t, doc, ">12:34:56</text>")
}

func TestComposerFollowsLinkEngine(t *testing.T) {
	c := NewComposer()
	engine := core.NewLinkEngine(kb.DefaultCatalog().Cities(), core.WithLinkSink(c))
	engine.Reset(context.Background(), core.NewStream("000001"))
	engine.SetTarget(6)

	for step := 1; step <= 200; step++ {
		engine.Tick(time.Duration(step) * 50 * time.Millisecond)
		require.Equal(t, engine.Len(), c.Len(), "step %d", step)
	}

	engine.SetTarget(2)
	require.Equal(t, 2, c.Len())

	active := engine.Active()
	views := c.Links()
	for i := range active {
		require.Equal(t, active[i].ID, views[i].Link.ID)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteToReportsErrors(t *testing.T) {
	err := Encode(failingWriter{}, generate(t, "000001", 0))
	require.Error(t, err)
}
