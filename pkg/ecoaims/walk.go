package ecoaims

// shotCollector gathers the objects found below a "shot" key in document
// order. The walk does not descend into a shot, nested containers of a shot
// are dropped. Values other than objects ("shot": false) are skipped.
type shotCollector struct {
	depth     int
	pending   bool // last key was "shot"
	shotDepth int  // depth of the current shot object, 0 if outside
	key       string
	cur       map[string]any
	shots     []map[string]any
}

func (c *shotCollector) value(v any) {
	c.pending = false
	if c.shotDepth != 0 && c.depth == c.shotDepth {
		c.cur[c.key] = v
	}
}

func (c *shotCollector) Null()           { c.value(nil) }
func (c *shotCollector) Bool(v bool)     { c.value(v) }
func (c *shotCollector) Int(v int64)     { c.value(v) }
func (c *shotCollector) Float(v float64) { c.value(v) }
func (c *shotCollector) Number(v string) { c.value(v) }
func (c *shotCollector) String(v string) { c.value(v) }

func (c *shotCollector) ObjectStart() {
	c.depth++
	if c.pending {
		c.pending = false
		c.shotDepth = c.depth
		c.cur = map[string]any{}
	}
}

func (c *shotCollector) ObjectEnd() {
	if c.shotDepth != 0 && c.depth == c.shotDepth {
		c.shots = append(c.shots, c.cur)
		c.shotDepth = 0
		c.cur = nil
	}
	c.depth--
}

func (c *shotCollector) Key(k string) {
	if c.shotDepth == 0 {
		c.pending = k == "shot"
		return
	}
	if c.depth == c.shotDepth {
		c.key = k
	}
}

func (c *shotCollector) ArrayStart() {
	c.pending = false
	c.depth++
}

func (c *shotCollector) ArrayEnd() { c.depth-- }
