// Package render holds the composer state shared by the SVG encoder and the
// live viewer.
package render

import (
	"github.com/signalsfoundry/strategic-map/core"
	"github.com/signalsfoundry/strategic-map/model"
)

// Link styling.
const (
	EndpointRadius = 2.5
	LabelOffsetX   = 8.0
	LabelOffsetY   = -8.0
	LabelFontSize  = 11.0

	// SweepWidth is the width of the scan sweep band.
	SweepWidth = 300.0
)

// ClockAt is where the HUD clock is drawn.
var ClockAt = model.PlanePoint{X: 880, Y: 48}

// LinkView is a live link together with its latest frame.
type LinkView struct {
	Link  *core.Link
	Frame core.LinkFrame
}

// State implements core.SceneComposer by remembering the latest scene,
// effects and link frames, so a renderer can paint a complete frame at any
// time. Links are kept in the order they were added.
type State struct {
	scene *model.Scene
	fx    core.Effects

	links map[core.LinkID]*LinkView
	order []core.LinkID
}

// NewState returns an empty state with reset effects.
func NewState() *State {
	return &State{
		fx:    core.Effects{SweepX: core.SweepStart, Opacity: 1, NoiseOpacity: 0.04},
		links: make(map[core.LinkID]*LinkView),
	}
}

// SetScene replaces the static scene.
func (s *State) SetScene(scene *model.Scene) {
	s.scene = scene
}

// SetEffects stores the latest screen effects.
func (s *State) SetEffects(fx core.Effects) {
	s.fx = fx
}

// AddLink starts tracking l at its birth frame.
func (s *State) AddLink(l *core.Link) {
	if l == nil {
		return
	}
	if _, ok := s.links[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.links[l.ID] = &LinkView{Link: l, Frame: l.Frame(l.Born)}
}

// UpdateLink records a new frame. Frames for unknown links are ignored.
func (s *State) UpdateLink(f core.LinkFrame) {
	if v, ok := s.links[f.ID]; ok {
		v.Frame = f
	}
}

// RemoveLink forgets the link with the given handle.
func (s *State) RemoveLink(id core.LinkID) {
	if _, ok := s.links[id]; !ok {
		return
	}
	delete(s.links, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Scene returns the current static scene, or nil.
func (s *State) Scene() *model.Scene {
	return s.scene
}

// Effects returns the latest effects.
func (s *State) Effects() core.Effects {
	return s.fx
}

// Len returns the number of tracked links.
func (s *State) Len() int {
	return len(s.order)
}

// Links returns the tracked links in insertion order.
func (s *State) Links() []LinkView {
	out := make([]LinkView, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.links[id])
	}
	return out
}

// LinkPrimitives returns every link as draw primitives, oldest first.
func (s *State) LinkPrimitives() []model.Primitive {
	var out []model.Primitive
	for _, v := range s.Links() {
		out = append(out, v.Primitives()...)
	}
	return out
}

// Primitives renders the link as its arc, two endpoint dots and an optional
// destination label.
func (v LinkView) Primitives() []model.Primitive {
	l, f := v.Link, v.Frame

	arc := l.Path()
	arc.Style = model.Style{
		Stroke:      model.Phosphor(0.30),
		StrokeWidth: l.StrokeWidth,
		Opacity:     model.Opacity(f.PathOpacity),
		DashArray:   []float64{l.Length, l.Length},
		DashOffset:  f.DashOffset,
		LineCap:     "round",
	}
	dot := model.Phosphor(0.65)

	out := []model.Primitive{
		arc,
		model.Circle{Center: l.A, R: EndpointRadius, Style: model.Style{Fill: dot, Opacity: model.Opacity(f.StartOpacity)}},
		model.Circle{Center: l.B, R: EndpointRadius, Style: model.Style{Fill: dot, Opacity: model.Opacity(f.EndOpacity)}},
	}
	if l.HasLabel() {
		out = append(out, model.Text{
			At:      l.B.Add(LabelOffsetX, LabelOffsetY),
			Content: l.Label,
			Style:   model.Style{Fill: model.Phosphor(0.40), FontSize: LabelFontSize, Opacity: model.Opacity(f.LabelOpacity)},
		})
	}
	return out
}

// ClockText is the HUD clock for the given effects.
func ClockText(fx core.Effects) model.Text {
	return model.Text{
		At:      ClockAt,
		Content: fx.Clock,
		Style:   model.Style{Fill: model.Phosphor(0.55), FontSize: 12},
	}
}
