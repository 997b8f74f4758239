// Package svg renders map frames as standalone SVG documents.
package svg

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/internal/render"
	"github.com/signalsfoundry/strategic-map/model"
)

const background = "#020a06"

// Composer is a core.SceneComposer that can write its current frame as SVG.
type Composer struct {
	*render.State
}

// NewComposer returns a composer with no scene.
func NewComposer() *Composer {
	return &Composer{State: render.NewState()}
}

// WriteTo writes the current frame. It implements io.WriterTo.
func (c *Composer) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	e := &encoder{w: bw}
	e.frame(c.State)
	if e.err != nil {
		return cw.n, e.err
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Encode writes a static scene with no links and reset effects.
func Encode(w io.Writer, scene *model.Scene) error {
	c := NewComposer()
	c.SetScene(scene)
	_, err := c.WriteTo(w)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// encoder keeps the first write error and turns later writes into no-ops.
type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) str(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *encoder) attr(name, value string) {
	e.str(" ")
	e.str(name)
	e.str(`="`)
	e.text(value)
	e.str(`"`)
}

func (e *encoder) text(s string) {
	if e.err != nil {
		return
	}
	e.err = xml.EscapeText(e.w, []byte(s))
}

func (e *encoder) frame(s *render.State) {
	width, height := core.CanvasWidth, core.CanvasHeight
	scene := s.Scene()
	if scene != nil && scene.Width > 0 && scene.Height > 0 {
		width, height = scene.Width, scene.Height
	}
	fx := s.Effects()

	e.str(`<svg xmlns="http://www.w3.org/2000/svg"`)
	e.attr("viewBox", "0 0 "+num(width)+" "+num(height))
	e.attr("width", num(width))
	e.attr("height", num(height))
	if scene != nil {
		e.attr("data-seed", scene.Seed)
	}
	e.str(">\n")

	e.str(`<defs>` +
		`<linearGradient id="sweepGrad" x1="0" y1="0" x2="1" y2="0">` +
		`<stop offset="0" stop-color="#00ff78" stop-opacity="0"/>` +
		`<stop offset="0.85" stop-color="#00ff78" stop-opacity="0.06"/>` +
		`<stop offset="1" stop-color="#00ff78" stop-opacity="0.16"/>` +
		`</linearGradient>` +
		`<pattern id="noisePat" width="3" height="3" patternUnits="userSpaceOnUse">` +
		`<rect width="1" height="1" fill="#00ff78"/>` +
		`</pattern>` +
		"</defs>\n")
	e.str(`<rect width="100%" height="100%"`)
	e.attr("fill", background)
	e.str("/>\n")

	e.str(`<g id="screen"`)
	e.attr("opacity", fixed(fx.Opacity))
	if fx.JitterX != 0 || fx.JitterY != 0 {
		e.attr("transform", "translate("+fixed(fx.JitterX)+" "+fixed(fx.JitterY)+")")
	}
	e.str(">\n")

	e.group("gGrid", scene.Layer(model.LayerGrid))
	e.group("gMap", scene.Layer(model.LayerMap))
	e.group("gLinks", s.LinkPrimitives())

	hud := scene.Layer(model.LayerHUD)
	if fx.Clock != "" {
		hud = append(hud[:len(hud):len(hud)], render.ClockText(fx))
	}
	e.group("gHUD", hud)

	e.str(`<rect id="scanSweep"`)
	e.attr("x", num(fx.SweepX))
	e.attr("y", "0")
	e.attr("width", num(render.SweepWidth))
	e.attr("height", num(height))
	e.attr("fill", "url(#sweepGrad)")
	e.str("/>\n")

	e.str(`<rect id="noise" width="100%" height="100%" fill="url(#noisePat)"`)
	e.attr("opacity", fixed(fx.NoiseOpacity))
	e.str("/>\n")

	e.str("</g>\n</svg>\n")
}

func (e *encoder) group(id string, prims []model.Primitive) {
	e.str(`<g id="` + id + `">` + "\n")
	for _, p := range prims {
		e.primitive(p)
	}
	e.str("</g>\n")
}

func (e *encoder) primitive(p model.Primitive) {
	switch v := p.(type) {
	case model.Line:
		e.str("<line")
		e.attr("x1", model.FormatCoord(v.A.X))
		e.attr("y1", model.FormatCoord(v.A.Y))
		e.attr("x2", model.FormatCoord(v.B.X))
		e.attr("y2", model.FormatCoord(v.B.Y))
		e.style(v.Style, false)
		e.str("/>\n")
	case model.Circle:
		e.str("<circle")
		e.attr("cx", model.FormatCoord(v.Center.X))
		e.attr("cy", model.FormatCoord(v.Center.Y))
		e.attr("r", model.FormatCoord(v.R))
		e.style(v.Style, false)
		e.str("/>\n")
	case model.Path:
		if v.Empty() {
			return
		}
		e.str("<path")
		e.attr("d", v.D())
		e.style(v.Style, false)
		e.str("/>\n")
	case model.Polyline:
		pts := make([]string, len(v.Points))
		for i, pt := range v.Points {
			pts[i] = model.FormatCoord(pt.X) + "," + model.FormatCoord(pt.Y)
		}
		e.str("<polyline")
		e.attr("points", strings.Join(pts, " "))
		e.style(v.Style, false)
		e.str("/>\n")
	case model.Rect:
		e.str("<rect")
		e.attr("x", model.FormatCoord(v.Origin.X))
		e.attr("y", model.FormatCoord(v.Origin.Y))
		e.attr("width", model.FormatCoord(v.W))
		e.attr("height", model.FormatCoord(v.H))
		e.style(v.Style, false)
		e.str("/>\n")
	case model.Text:
		e.str("<text")
		e.attr("x", model.FormatCoord(v.At.X))
		e.attr("y", model.FormatCoord(v.At.Y))
		e.style(v.Style, true)
		e.str(">")
		e.text(v.Content)
		e.str("</text>\n")
	}
}

// style writes presentation attributes. Shapes without a fill get
// fill="none"; text omits it and keeps the SVG default.
func (e *encoder) style(st model.Style, isText bool) {
	switch {
	case !st.Fill.IsZero():
		e.attr("fill", st.Fill.String())
	case !isText:
		e.attr("fill", "none")
	}
	if !st.Stroke.IsZero() {
		e.attr("stroke", st.Stroke.String())
	}
	if st.StrokeWidth > 0 {
		e.attr("stroke-width", num(st.StrokeWidth))
	}
	if len(st.DashArray) > 0 {
		parts := make([]string, len(st.DashArray))
		for i, d := range st.DashArray {
			parts[i] = model.FormatCoord(d)
		}
		e.attr("stroke-dasharray", strings.Join(parts, " "))
		e.attr("stroke-dashoffset", model.FormatCoord(st.DashOffset))
	}
	if st.LineCap != "" {
		e.attr("stroke-linecap", st.LineCap)
	}
	if st.Opacity != nil {
		e.attr("opacity", fixed(*st.Opacity))
	}
	if isText {
		e.attr("font-family", "monospace")
		if st.FontSize > 0 {
			e.attr("font-size", num(st.FontSize))
		}
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fixed formats opacities and effect offsets with three decimals.
func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
