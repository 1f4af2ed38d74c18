package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/mpapenbr/shotrecord/pkg/target"
)

const tooltipID = "tooltip"

// browser side of the tooltip transitions: over shows the marker score,
// move follows the pointer, out hides it.
const tooltipScript = `(function () {
  var tip = document.getElementById('tooltip');
  var dx = %s, dy = %s;
  function place(e) {
    var r = tip.ownerSVGElement.getBoundingClientRect();
    tip.setAttribute('x', e.clientX - r.left + dx);
    tip.setAttribute('y', e.clientY - r.top + dy);
  }
  document.querySelectorAll('g.shot').forEach(function (g) {
    g.addEventListener('mouseover', function (e) {
      tip.textContent = g.getAttribute('data-points');
      place(e);
      tip.setAttribute('visibility', 'visible');
    });
    g.addEventListener('mousemove', place);
    g.addEventListener('mouseout', function () {
      tip.setAttribute('visibility', 'hidden');
    });
  });
})();`

type (
	SVGOption  func(o *svgOptions)
	svgOptions struct {
		interactive bool
		offset      target.Point
		tooltip     *Tooltip
	}
)

// WithInteractiveTooltip adds a tooltip element and a script which shows
// the marker score on hover.
func WithInteractiveTooltip(offset target.Point) SVGOption {
	return func(o *svgOptions) {
		o.interactive = true
		o.offset = offset
	}
}

// WithTooltipState writes the current state of t into the tooltip element.
func WithTooltipState(t *Tooltip) SVGOption {
	return func(o *svgOptions) {
		o.tooltip = t
	}
}

type svgWriter struct {
	buf bytes.Buffer
}

func (w *svgWriter) printf(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *svgWriter) text(s string) {
	//nolint:errcheck // writes to bytes.Buffer don't fail
	xml.EscapeText(&w.buf, []byte(s))
}

func (w *svgWriter) attr(name, value string) {
	w.printf(` %s="`, name)
	w.text(value)
	w.buf.WriteString(`"`)
}

// WriteSVG serializes the scene as standalone SVG document.
func (s *Scene) WriteSVG(out io.Writer, opts ...SVGOption) error {
	o := &svgOptions{}
	for _, opt := range opts {
		opt(o)
	}
	w := &svgWriter{}
	w.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		s.width, s.height, s.width, s.height)
	if len(s.gradients) > 0 {
		w.printf("  <defs>\n")
		for _, g := range s.gradients {
			w.printf(`    <linearGradient id="%s" x1="0%%" y1="0%%" x2="0%%" y2="100%%">`+"\n", g.ID)
			for _, stop := range g.Stops {
				w.printf("      <stop")
				w.attr("offset", stop.Offset)
				w.attr("stop-color", stop.Color)
				w.printf("/>\n")
			}
			w.printf("    </linearGradient>\n")
		}
		w.printf("  </defs>\n")
	}
	for _, n := range s.nodes {
		n.writeSVG(w)
	}
	if o.interactive || o.tooltip != nil {
		writeTooltip(w, o)
	}
	w.printf("</svg>\n")
	_, err := out.Write(w.buf.Bytes())
	return err
}

func writeTooltip(w *svgWriter, o *svgOptions) {
	state := o.tooltip
	if state == nil {
		state = &Tooltip{}
	}
	visibility := "hidden"
	if state.Visible {
		visibility = "visible"
	}
	w.printf(`  <text id="%s" x="%s" y="%s" visibility="%s" pointer-events="none" font-size="12px">`,
		tooltipID, num(state.X), num(state.Y), visibility)
	w.text(state.Text)
	w.printf("</text>\n")
	if o.interactive {
		w.printf("  <script><![CDATA[\n")
		w.printf(tooltipScript, num(o.offset.X), num(o.offset.Y))
		w.printf("\n  ]]></script>\n")
	}
}

func (n *RectNode) writeSVG(w *svgWriter) {
	w.printf(`  <rect x="%d" y="%d" width="%d" height="%d"`, n.X, n.Y, n.Width, n.Height)
	w.attr("fill", paint(n.Fill))
	w.printf("/>\n")
}

func (n *CircleNode) writeSVG(w *svgWriter) {
	w.buf.WriteString("  ")
	writeCircle(w, n.Circle)
}

func (g *GroupNode) writeSVG(w *svgWriter) {
	w.printf(`  <g`)
	w.attr("class", g.Class)
	w.printf(` transform="translate(%s,%s)"`, num(g.At.X), num(g.At.Y))
	title, hasTitle := tooltipText(g.data)
	if hasTitle {
		w.attr("data-points", title)
	}
	w.printf(">\n")
	if hasTitle {
		w.printf("    <title>")
		w.text(title)
		w.printf("</title>\n")
	}
	for _, c := range g.Circles {
		w.buf.WriteString("    ")
		writeCircle(w, c)
	}
	for _, t := range g.Texts {
		w.printf(`    <text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle"`,
			num(t.Pos.X), num(t.Pos.Y))
		w.attr("fill", paint(t.Fill))
		if t.FontSize != "" {
			w.attr("font-size", t.FontSize)
		}
		w.printf(">")
		w.text(t.Content)
		w.printf("</text>\n")
	}
	w.printf("  </g>\n")
}

func writeCircle(w *svgWriter, c target.Circle) {
	w.printf(`<circle cx="%s" cy="%s" r="%d"`, num(c.Center.X), num(c.Center.Y), c.Radius)
	w.attr("fill", paint(c.Fill))
	w.attr("stroke", paint(c.Stroke))
	w.printf("/>\n")
}

func tooltipText(data any) (string, bool) {
	if t, ok := data.(interface{ TooltipText() string }); ok {
		return t.TooltipText(), true
	}
	return "", false
}

func paint(p string) string {
	if p == "" {
		return "none"
	}
	return p
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
