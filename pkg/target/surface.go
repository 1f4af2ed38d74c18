package target

// Point is a position in surface pixels.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

type GradientStop struct {
	Offset string `yaml:"offset"`
	Color  string `yaml:"color"`
}

// Circle is drawn relative to the parent (surface or group).
// An empty Fill or Stroke means "none".
type Circle struct {
	Center Point
	Radius int
	Fill   string
	Stroke string
}

// Text is drawn centered at Pos.
type Text struct {
	Pos      Point
	Content  string
	Fill     string
	FontSize string
}

// PointerEvent carries the pointer position in page coordinates.
type PointerEvent struct {
	Page Point
}

// PointerHandlers are invoked by the host in the order over, move*, out.
type PointerHandlers struct {
	Over func(ev PointerEvent)
	Move func(ev PointerEvent)
	Out  func(ev PointerEvent)
}

// Surface is the drawable output of a Renderer.
type Surface interface {
	Size() (width, height int)
	// Clear removes all previously drawn content.
	Clear()
	// VerticalGradient defines a top to bottom gradient usable as paint
	// "url(#id)".
	VerticalGradient(id string, stops []GradientStop)
	Rect(x, y, width, height int, fill string)
	Circle(c Circle)
	// Group creates a group translated to at. data is retained with the
	// group and returned by Group.Data.
	Group(class string, at Point, data any) Group
}

type Group interface {
	Circle(c Circle)
	Text(t Text)
	Data() any
	OnPointer(h PointerHandlers)
}
