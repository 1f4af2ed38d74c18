// Package metrics computes precision metrics of a shot group.
// See http://ballistipedia.com/index.php?title=Measuring_Precision
package metrics

import (
	"errors"
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/shotrecord/pkg/model"
)

// DefaultConsistencyRef is the radial standard deviation at which the
// consistency score drops to zero.
const DefaultConsistencyRef = 50.0

var (
	ErrNoShots   = errors.New("no shots with coordinates")
	ErrNonFinite = errors.New("metrics out of float64 range")
)

//nolint:tagliatelle // client compatibility
type Metrics struct {
	N              int     `json:"n" yaml:"n"`
	MPIX           float64 `json:"mpiX" yaml:"mpiX"`
	MPIY           float64 `json:"mpiY" yaml:"mpiY"`
	MeanRadius     float64 `json:"meanRadius" yaml:"meanRadius"`
	RadialStdDev   float64 `json:"radialStdDev" yaml:"radialStdDev"`
	RMS            float64 `json:"rms" yaml:"rms"`
	ExtremeSpread  float64 `json:"extremeSpread" yaml:"extremeSpread"`
	ConsistencyPct float64 `json:"consistencyPct" yaml:"consistencyPct"`
}

type point struct{ x, y float64 }

type (
	Option func(c *calc)
	calc   struct {
		ref float64
	}
)

// WithConsistencyRef sets the reference used for the consistency score.
func WithConsistencyRef(ref float64) Option {
	return func(c *calc) {
		if ref > 0 {
			c.ref = ref
		}
	}
}

// Compute calculates the metrics of the shots which have coordinates.
func Compute(shots []model.Shot, opts ...Option) (*Metrics, error) {
	c := &calc{ref: DefaultConsistencyRef}
	for _, opt := range opts {
		opt(c)
	}
	pts := lo.FilterMap(shots, func(s model.Shot, _ int) (point, bool) {
		x, y, ok := s.Position()
		return point{x, y}, ok && !math.IsNaN(x) && !math.IsNaN(y)
	})
	if len(pts) == 0 {
		return nil, ErrNoShots
	}
	n := float64(len(pts))

	mx := lo.SumBy(pts, func(p point) float64 { return p.x }) / n
	my := lo.SumBy(pts, func(p point) float64 { return p.y }) / n
	r := lo.Map(pts, func(p point, _ int) float64 { return math.Hypot(p.x-mx, p.y-my) })
	mr := lo.Sum(r) / n
	rsd := math.Sqrt(lo.SumBy(r, func(v float64) float64 { return (v - mr) * (v - mr) }) / n)
	rms := math.Sqrt(lo.SumBy(r, func(v float64) float64 { return v * v }) / n)

	m := &Metrics{
		N:              len(pts),
		MPIX:           mx,
		MPIY:           my,
		MeanRadius:     mr,
		RadialStdDev:   rsd,
		RMS:            rms,
		ExtremeSpread:  extremeSpread(pts),
		ConsistencyPct: math.Max(0, 100*(1-rsd/c.ref)),
	}
	if !m.finite() {
		return nil, ErrNonFinite
	}
	return m, nil
}

func (m *Metrics) finite() bool {
	return !lo.SomeBy([]float64{
		m.MPIX, m.MPIY, m.MeanRadius, m.RadialStdDev, m.RMS, m.ExtremeSpread, m.ConsistencyPct,
	}, func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) })
}

// extremeSpread is the largest center-to-center distance of any two shots.
func extremeSpread(pts []point) float64 {
	ret := 0.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := math.Hypot(pts[i].x-pts[j].x, pts[i].y-pts[j].y); d > ret {
				ret = d
			}
		}
	}
	return ret
}
