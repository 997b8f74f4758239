// Package viewer shows the animated map in a desktop window using ebiten.
package viewer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/internal/logging"
	"github.com/signalsfoundry/strategic-map/internal/render"
	"github.com/signalsfoundry/strategic-map/model"
)

// Keyboard controls.
const (
	KeyRegenerate = ebiten.KeyR
	KeyNewSeed    = ebiten.KeyN
	KeyPause      = ebiten.KeySpace
	KeyPauseAlt   = ebiten.KeyP
	KeyMoreLinks  = ebiten.KeyArrowUp
	KeyFewerLinks = ebiten.KeyArrowDown
	KeyDenser     = ebiten.KeyArrowRight
	KeySparser    = ebiten.KeyArrowLeft
	KeyFlicker    = ebiten.KeyF
	KeyCopySeed   = ebiten.KeyC
)

var controlKeys = []ebiten.Key{
	KeyRegenerate, KeyNewSeed, KeyPause, KeyPauseAlt,
	KeyMoreLinks, KeyFewerLinks, KeyDenser, KeySparser,
	KeyFlicker, KeyCopySeed,
}

const (
	densityStep = 0.25
	flickerStep = 0.1

	sweepBands  = 24
	noiseStride = 3
	toastFor    = 2 * time.Second
)

var background = color.NRGBA{R: 2, G: 10, B: 6, A: 255}

// Game implements ebiten.Game over a MapEngine whose composer is the
// game's render.State.
type Game struct {
	engine *core.MapEngine
	state  *render.State
	log    logging.Logger

	now      func() time.Time
	pressed  func(ebiten.Key) bool
	copyText func(string) error

	prevKeys map[ebiten.Key]bool

	fontSource *text.GoTextFaceSource
	faces      map[float64]*text.GoTextFace
	canvas     *ebiten.Image
	noise      *ebiten.Image
	white      *ebiten.Image

	toast      string
	toastUntil time.Time
}

// Option customises a Game.
type Option func(*Game)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// WithClock overrides the wall clock passed to MapEngine.Tick.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// WithKeyState overrides keyboard polling.
func WithKeyState(pressed func(ebiten.Key) bool) Option {
	return func(g *Game) {
		if pressed != nil {
			g.pressed = pressed
		}
	}
}

// WithClipboard overrides where the copy-seed key writes.
func WithClipboard(write func(string) error) Option {
	return func(g *Game) {
		if write != nil {
			g.copyText = write
		}
	}
}

// New builds a game. The engine must have been constructed with
// core.WithComposer(state) so that frames reach the window.
func New(engine *core.MapEngine, state *render.State, opts ...Option) (*Game, error) {
	if engine == nil || state == nil {
		return nil, fmt.Errorf("viewer: engine and state are required")
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		return nil, fmt.Errorf("viewer: load font: %w", err)
	}
	g := &Game{
		engine:     engine,
		state:      state,
		log:        logging.Noop(),
		now:        time.Now,
		pressed:    ebiten.IsKeyPressed,
		copyText:   clipboard.WriteAll,
		prevKeys:   make(map[ebiten.Key]bool),
		fontSource: src,
		faces:      make(map[float64]*text.GoTextFace),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Update handles input and advances the animation by one frame.
func (g *Game) Update() error {
	g.handleInput()
	g.engine.Tick(g.now())
	return nil
}

// handleInput applies edge-triggered key presses.
func (g *Game) handleInput() {
	ctx := context.Background()
	current := make(map[ebiten.Key]bool, len(controlKeys))
	for _, k := range controlKeys {
		current[k] = g.pressed(k)
	}
	hit := func(k ebiten.Key) bool { return current[k] && !g.prevKeys[k] }

	cfg := g.engine.Config()
	switch {
	case hit(KeyRegenerate):
		g.engine.Regenerate(ctx)
	case hit(KeyNewSeed):
		cfg.Seed = ""
		g.engine.SetConfig(cfg)
		g.engine.Regenerate(ctx)
	case hit(KeyPause), hit(KeyPauseAlt):
		if g.engine.TogglePause() {
			g.showToast("PAUSED")
		} else {
			g.showToast("RESUMED")
		}
	case hit(KeyMoreLinks):
		g.engine.SetLinks(cfg.Links + 1)
		g.showToast(fmt.Sprintf("LINKS: %d", g.engine.Config().Links))
	case hit(KeyFewerLinks):
		g.engine.SetLinks(cfg.Links - 1)
		g.showToast(fmt.Sprintf("LINKS: %d", g.engine.Config().Links))
	case hit(KeyDenser), hit(KeySparser):
		if hit(KeyDenser) {
			cfg.Density += densityStep
		} else {
			cfg.Density -= densityStep
		}
		g.engine.SetConfig(cfg)
		g.engine.RegenerateSeed(ctx, g.engine.Seed())
		g.showToast(fmt.Sprintf("DENSITY: %.2f", g.engine.Config().Density))
	case hit(KeyFlicker):
		cfg.Flicker += flickerStep
		if cfg.Flicker > 1+1e-9 {
			cfg.Flicker = 0
		}
		g.engine.SetConfig(cfg)
		g.showToast(fmt.Sprintf("FLICKER: %.1f", g.engine.Config().Flicker))
	case hit(KeyCopySeed):
		seed := g.engine.Seed()
		if err := g.copyText(seed); err != nil {
			g.log.Warn(ctx, "copy seed to clipboard failed", logging.Err(err))
			g.showToast("CLIPBOARD UNAVAILABLE")
		} else {
			g.showToast("COPIED SEED " + seed)
		}
	}
	g.prevKeys = current
}

func (g *Game) showToast(msg string) {
	g.toast = msg
	g.toastUntil = g.now().Add(toastFor)
}

// Layout fixes the logical screen to the map canvas.
func (g *Game) Layout(int, int) (int, int) {
	return int(core.CanvasWidth), int(core.CanvasHeight)
}

// Draw paints the current frame: the static layers, live links, HUD, then
// the sweep and noise overlays, with flicker and jitter applied to the
// whole canvas.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	w, h := int(core.CanvasWidth), int(core.CanvasHeight)
	if g.canvas == nil {
		g.canvas = ebiten.NewImage(w, h)
	}
	if g.noise == nil {
		g.noise = newNoiseImage(w, h)
	}
	canvas := g.canvas
	canvas.Clear()

	fx := g.state.Effects()
	scene := g.state.Scene()
	g.drawAll(canvas, scene.Layer(model.LayerGrid))
	g.drawAll(canvas, scene.Layer(model.LayerMap))
	g.drawAll(canvas, g.state.LinkPrimitives())
	g.drawAll(canvas, scene.Layer(model.LayerHUD))
	if fx.Clock != "" {
		g.drawPrimitive(canvas, render.ClockText(fx))
	}
	if g.toast != "" && g.now().Before(g.toastUntil) {
		g.drawPrimitive(canvas, model.Text{
			At:      model.PlanePoint{X: 420, Y: 48},
			Content: g.toast,
			Style:   model.Style{Fill: model.Phosphor(0.75), FontSize: 12},
		})
	}

	drawSweep(canvas, float32(fx.SweepX), float32(h))

	noiseOpts := &ebiten.DrawImageOptions{}
	noiseOpts.ColorScale.ScaleAlpha(float32(fx.NoiseOpacity))
	canvas.DrawImage(g.noise, noiseOpts)

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(fx.JitterX, fx.JitterY)
	opts.ColorScale.ScaleAlpha(float32(fx.Opacity))
	screen.DrawImage(canvas, opts)
}

func (g *Game) drawAll(dst *ebiten.Image, prims []model.Primitive) {
	for _, p := range prims {
		g.drawPrimitive(dst, p)
	}
}

func (g *Game) drawPrimitive(dst *ebiten.Image, p model.Primitive) {
	switch v := p.(type) {
	case model.Line:
		strokePolyline(dst, []model.PlanePoint{v.A, v.B}, v.Style)
	case model.Polyline:
		strokePolyline(dst, v.Points, v.Style)
	case model.Path:
		subpaths := flatten(v)
		if !v.Style.Fill.IsZero() {
			g.fillPolygons(dst, subpaths, toColor(v.Style.Fill, v.Style.EffectiveOpacity()))
		}
		for _, pts := range subpaths {
			strokePolyline(dst, pts, v.Style)
		}
	case model.Circle:
		cx, cy, r := float32(v.Center.X), float32(v.Center.Y), float32(v.R)
		if !v.Style.Fill.IsZero() {
			vector.FillCircle(dst, cx, cy, r, toColor(v.Style.Fill, v.Style.EffectiveOpacity()), true)
		}
		if !v.Style.Stroke.IsZero() {
			if len(v.Style.DashArray) > 0 {
				strokePolyline(dst, circlePoints(v.Center, v.R), v.Style)
			} else {
				vector.StrokeCircle(dst, cx, cy, r, strokeWidth(v.Style), toColor(v.Style.Stroke, v.Style.EffectiveOpacity()), true)
			}
		}
	case model.Rect:
		x, y := float32(v.Origin.X), float32(v.Origin.Y)
		if !v.Style.Fill.IsZero() {
			vector.FillRect(dst, x, y, float32(v.W), float32(v.H), toColor(v.Style.Fill, v.Style.EffectiveOpacity()), false)
		}
		if !v.Style.Stroke.IsZero() {
			vector.StrokeRect(dst, x, y, float32(v.W), float32(v.H), strokeWidth(v.Style), toColor(v.Style.Stroke, v.Style.EffectiveOpacity()), false)
		}
	case model.Text:
		g.drawText(dst, v)
	}
}

func (g *Game) drawText(dst *ebiten.Image, t model.Text) {
	size := t.Style.FontSize
	if size <= 0 {
		size = 12
	}
	face, ok := g.faces[size]
	if !ok {
		face = &text.GoTextFace{Source: g.fontSource, Size: size}
		g.faces[size] = face
	}
	fill := t.Style.Fill
	if fill.IsZero() {
		fill = model.Phosphor(1)
	}

	opts := &text.DrawOptions{}
	// Text.At is the baseline origin; text/v2 positions the line box top.
	opts.GeoM.Translate(t.At.X, t.At.Y-face.Metrics().HAscent)
	opts.ColorScale.ScaleWithColor(toColor(fill, t.Style.EffectiveOpacity()))
	text.Draw(dst, t.Content, face, opts)
}

func strokePolyline(dst *ebiten.Image, pts []model.PlanePoint, st model.Style) {
	if st.Stroke.IsZero() || len(pts) < 2 {
		return
	}
	clr := toColor(st.Stroke, st.EffectiveOpacity())
	width := strokeWidth(st)
	for _, s := range dashSegments(pts, st.DashArray, st.DashOffset) {
		vector.StrokeLine(dst, float32(s.A.X), float32(s.A.Y), float32(s.B.X), float32(s.B.Y), width, clr, true)
	}
}

// fillPolygons fills closed outlines using the non-zero rule.
func (g *Game) fillPolygons(dst *ebiten.Image, polys [][]model.PlanePoint, clr color.NRGBA) {
	if g.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		g.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	var p vector.Path
	for _, pts := range polys {
		if len(pts) < 3 {
			continue
		}
		p.MoveTo(float32(pts[0].X), float32(pts[0].Y))
		for _, pt := range pts[1:] {
			p.LineTo(float32(pt.X), float32(pt.Y))
		}
		p.Close()
	}
	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	if len(is) == 0 {
		return
	}
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(clr.R) / 255
		vs[i].ColorG = float32(clr.G) / 255
		vs[i].ColorB = float32(clr.B) / 255
		vs[i].ColorA = float32(clr.A) / 255
	}
	dst.DrawTriangles(vs, is, g.white, &ebiten.DrawTrianglesOptions{FillRule: ebiten.FillRuleNonZero})
}

func strokeWidth(st model.Style) float32 {
	if st.StrokeWidth <= 0 {
		return 1
	}
	return float32(st.StrokeWidth)
}

func circlePoints(c model.PlanePoint, r float64) []model.PlanePoint {
	const steps = 48
	pts := make([]model.PlanePoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		pts = append(pts, model.PlanePoint{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)})
	}
	return pts
}

// drawSweep approximates the sweep gradient with vertical bands that
// brighten toward the leading edge.
func drawSweep(dst *ebiten.Image, x, h float32) {
	bandW := float32(render.SweepWidth) / sweepBands
	for i := 0; i < sweepBands; i++ {
		t := float64(i+1) / sweepBands
		a := 0.16 * t * t
		clr := color.NRGBA{R: 0, G: 255, B: 120, A: uint8(a * 255)}
		vector.FillRect(dst, x+float32(i)*bandW, 0, bandW, h, clr, false)
	}
}

// newNoiseImage builds a fixed sparse phosphor speckle used as the noise
// overlay; its opacity is what varies per tick.
func newNoiseImage(w, h int) *ebiten.Image {
	img := ebiten.NewImage(w, h)
	r := rand.New(rand.NewPCG(0x5eed, 0x2a))
	pix := make([]byte, 4*w*h)
	for y := 0; y < h; y += noiseStride {
		for x := 0; x < w; x += noiseStride {
			if r.IntN(3) != 0 {
				continue
			}
			i := 4 * (y*w + x)
			pix[i], pix[i+1], pix[i+2], pix[i+3] = 0, 255, 120, 255
		}
	}
	img.WritePixels(pix)
	return img
}
