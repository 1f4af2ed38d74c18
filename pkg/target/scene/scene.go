// Package scene provides a retained, in-memory target.Surface.
//
// Nodes are kept in draw order. Marker groups keep their data and pointer
// handlers so a host (tests, a browser script) can deliver pointer events.
// A scene can be serialized as SVG.
package scene

import (
	"github.com/mpapenbr/shotrecord/pkg/target"
)

type EventKind int

const (
	PointerOver EventKind = iota
	PointerMove
	PointerOut
)

type (
	Node interface {
		writeSVG(w *svgWriter)
	}
	Gradient struct {
		ID    string
		Stops []target.GradientStop
	}
	RectNode struct {
		X, Y, Width, Height int
		Fill                string
	}
	CircleNode struct {
		target.Circle
	}
	GroupNode struct {
		Class    string
		At       target.Point
		Circles  []target.Circle
		Texts    []target.Text
		data     any
		handlers target.PointerHandlers
	}
)

type Scene struct {
	width     int
	height    int
	gradients []Gradient
	nodes     []Node
}

var (
	_ target.Surface = (*Scene)(nil)
	_ target.Group   = (*GroupNode)(nil)
)

func New(width, height int) *Scene {
	return &Scene{width: width, height: height}
}

func (s *Scene) Size() (width, height int) {
	return s.width, s.height
}

func (s *Scene) Clear() {
	s.gradients = nil
	s.nodes = nil
}

func (s *Scene) VerticalGradient(id string, stops []target.GradientStop) {
	s.gradients = append(s.gradients, Gradient{ID: id, Stops: stops})
}

func (s *Scene) Rect(x, y, width, height int, fill string) {
	s.nodes = append(s.nodes, &RectNode{X: x, Y: y, Width: width, Height: height, Fill: fill})
}

func (s *Scene) Circle(c target.Circle) {
	s.nodes = append(s.nodes, &CircleNode{Circle: c})
}

func (s *Scene) Group(class string, at target.Point, data any) target.Group {
	g := &GroupNode{Class: class, At: at, data: data}
	s.nodes = append(s.nodes, g)
	return g
}

func (s *Scene) Nodes() []Node {
	return s.nodes
}

func (s *Scene) Gradients() []Gradient {
	return s.gradients
}

// Circles returns the circles drawn directly on the surface.
func (s *Scene) Circles() []target.Circle {
	var ret []target.Circle
	for _, n := range s.nodes {
		if c, ok := n.(*CircleNode); ok {
			ret = append(ret, c.Circle)
		}
	}
	return ret
}

// Groups returns the groups with the given class in draw order.
func (s *Scene) Groups(class string) []*GroupNode {
	var ret []*GroupNode
	for _, n := range s.nodes {
		if g, ok := n.(*GroupNode); ok && g.Class == class {
			ret = append(ret, g)
		}
	}
	return ret
}

func (g *GroupNode) Circle(c target.Circle) {
	g.Circles = append(g.Circles, c)
}

func (g *GroupNode) Text(t target.Text) {
	g.Texts = append(g.Texts, t)
}

func (g *GroupNode) Data() any {
	return g.data
}

func (g *GroupNode) OnPointer(h target.PointerHandlers) {
	g.handlers = h
}

// Dispatch delivers a pointer event to the group handlers.
func (g *GroupNode) Dispatch(kind EventKind, ev target.PointerEvent) {
	var h func(target.PointerEvent)
	switch kind {
	case PointerOver:
		h = g.handlers.Over
	case PointerMove:
		h = g.handlers.Move
	case PointerOut:
		h = g.handlers.Out
	}
	if h != nil {
		h(ev)
	}
}

// Tooltip is an in-memory target.TooltipSink.
type Tooltip struct {
	Visible bool
	Text    string
	X, Y    float64
}

var _ target.TooltipSink = (*Tooltip)(nil)

func (t *Tooltip) Show()                    { t.Visible = true }
func (t *Tooltip) Hide()                    { t.Visible = false }
func (t *Tooltip) SetPosition(x, y float64) { t.X, t.Y = x, y }
func (t *Tooltip) SetText(text string)      { t.Text = text }
