package target

// TooltipSink is the shared UI element showing the score of a hovered shot.
type TooltipSink interface {
	Show()
	Hide()
	SetPosition(x, y float64)
	SetText(text string)
}

// TooltipController owns the state transitions of one TooltipSink.
// At most one marker is active at any time.
type TooltipController struct {
	sink   TooltipSink
	offset Point
	active bool
	text   string
}

func NewTooltipController(sink TooltipSink, offset Point) *TooltipController {
	return &TooltipController{sink: sink, offset: offset}
}

// Activate shows text near pos. A previously active marker is replaced.
func (c *TooltipController) Activate(text string, pos Point) {
	c.active = true
	c.text = text
	c.sink.SetText(text)
	c.place(pos)
	c.sink.Show()
}

// Move keeps the tooltip following the pointer. No-op while inactive.
func (c *TooltipController) Move(pos Point) {
	if !c.active {
		return
	}
	c.place(pos)
}

func (c *TooltipController) Deactivate() {
	c.active = false
	c.text = ""
	c.sink.Hide()
}

func (c *TooltipController) Active() bool {
	return c.active
}

func (c *TooltipController) Text() string {
	return c.text
}

func (c *TooltipController) place(pos Point) {
	p := pos.Add(c.offset)
	c.sink.SetPosition(p.X, p.Y)
}
