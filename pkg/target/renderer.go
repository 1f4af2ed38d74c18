package target

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/model"
)

const (
	MarkerClass        = "shot"
	backgroundGradient = "grayGradient"
)

var (
	ErrInvalidShotData = errors.New("invalid shot data")
	ErrInvalidSurface  = errors.New("invalid surface")
)

// InvalidShotError reports a shot that could not be placed on the surface.
type InvalidShotError struct {
	Index  int // 0-based position in the series
	Reason string
}

func (e *InvalidShotError) Error() string {
	return fmt.Sprintf("shot %d: %s", e.Index+1, e.Reason)
}

func (e *InvalidShotError) Unwrap() error {
	return ErrInvalidShotData
}

// Marker is the data retained with each marker group.
type Marker struct {
	Index int
	Label string
	Score string
	Shot  model.Shot
}

// TooltipText is the text shown while the marker is hovered.
func (m Marker) TooltipText() string {
	return m.Score
}

type (
	Option   func(r *Renderer)
	Renderer struct {
		layout LayoutSpec
		log    *log.Logger
	}
)

func WithLayout(l LayoutSpec) Option {
	return func(r *Renderer) {
		r.layout = l
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		r.log = l
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		layout: DefaultLayout(),
		log:    log.Default().Named("target"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Layout() LayoutSpec {
	return r.layout
}

// Center returns the target center for a surface of the given size.
func Center(width, height int) Point {
	return Point{X: float64(width / 2), Y: float64(height / 2)}
}

// Render repaints surface with the target and one marker per shot.
// Shots which cannot be placed are skipped and reported as InvalidShotError,
// the returned error joins all of them.
func (r *Renderer) Render(series *model.Series, s Surface, tooltip TooltipSink) error {
	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidSurface, width, height)
	}
	s.Clear()
	r.drawBackground(s, width, height)

	center := Center(width, height)
	r.drawTarget(s, center)

	if series == nil {
		return nil
	}
	if tooltip == nil {
		tooltip = noTooltip{}
	}
	ctrl := NewTooltipController(tooltip, r.layout.TooltipOffset)
	var errs []error
	for i := range series.Shots {
		if err := r.drawMarker(s, ctrl, center, width, height, i, series.Shots[i]); err != nil {
			r.log.Warn("skipping shot", log.Int("shot", i+1), log.ErrorField(err))
			errs = append(errs, err)
		}
	}
	r.log.Debug("series rendered",
		log.Int("shots", len(series.Shots)),
		log.Int("invalid", len(errs)))
	return errors.Join(errs...)
}

func (r *Renderer) drawBackground(s Surface, width, height int) {
	s.VerticalGradient(backgroundGradient, r.layout.Background)
	s.Rect(0, 0, width, height, "url(#"+backgroundGradient+")")
}

func (r *Renderer) drawTarget(s Surface, center Point) {
	c := r.layout.Colors
	s.Circle(Circle{
		Center: center,
		Radius: r.layout.OuterPx(),
		Fill:   c.Backing,
		Stroke: c.Backing,
	})
	for i, radius := range r.layout.RingsPx() {
		ring := Circle{Center: center, Radius: radius, Stroke: c.Ring}
		if i == r.layout.FilledRing {
			ring.Fill = c.FilledRing
			ring.Stroke = c.FilledRing
		}
		s.Circle(ring)
	}
	for _, radius := range r.layout.BoundariesPx() {
		s.Circle(Circle{Center: center, Radius: radius, Stroke: c.Boundary})
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (r *Renderer) drawMarker(
	s Surface,
	ctrl *TooltipController,
	center Point,
	width, height, idx int,
	shot model.Shot,
) error {
	x, y, ok := shot.Position()
	if !ok {
		return &InvalidShotError{Index: idx, Reason: "missing coordinates"}
	}
	if !finite(x) || !finite(y) {
		return &InvalidShotError{Index: idx, Reason: fmt.Sprintf("non-finite position (%v,%v)", x, y)}
	}
	at := center.Add(Point{X: x, Y: y})
	if !r.placeable(x, y, at, width, height) {
		return &InvalidShotError{
			Index:  idx,
			Reason: fmt.Sprintf("position (%v,%v) outside of surface", x, y),
		}
	}

	m := Marker{
		Index: idx,
		Label: strconv.Itoa(idx + 1),
		Score: shot.Points.String(),
		Shot:  shot,
	}
	g := s.Group(MarkerClass, at, m)
	g.Circle(Circle{
		Radius: r.layout.MarkerPx(),
		Fill:   r.layout.Colors.MarkerFill,
		Stroke: r.layout.Colors.MarkerStroke,
	})
	g.Text(Text{
		Content:  m.Label,
		Fill:     r.layout.Colors.MarkerLabel,
		FontSize: r.layout.MarkerLabelFont,
	})
	score := m.Score
	g.OnPointer(PointerHandlers{
		Over: func(ev PointerEvent) { ctrl.Activate(score, ev.Page) },
		Move: func(ev PointerEvent) { ctrl.Move(ev.Page) },
		Out:  func(PointerEvent) { ctrl.Deactivate() },
	})
	return nil
}

// placeable reports whether a marker at offset (x,y) lies on the target or
// at least touches the surface. Markers on a cropped target are kept.
func (r *Renderer) placeable(x, y float64, at Point, width, height int) bool {
	mr := float64(r.layout.MarkerPx())
	if math.Hypot(x, y) <= float64(r.layout.OuterPx())+mr {
		return true
	}
	return at.X >= -mr && at.Y >= -mr &&
		at.X <= float64(width)+mr && at.Y <= float64(height)+mr
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type noTooltip struct{}

func (noTooltip) Show()                    {}
func (noTooltip) Hide()                    {}
func (noTooltip) SetPosition(_, _ float64) {}
func (noTooltip) SetText(string)           {}
