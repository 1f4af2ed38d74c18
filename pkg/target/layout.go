package target

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// LayoutSpec describes the fixed geometry of one target system.
// All radii are base values which are scaled by Radius.
//
//nolint:tagliatelle // yaml file compatibility
type LayoutSpec struct {
	Name            string         `yaml:"name"`
	Scale           float64        `yaml:"scale"`
	OuterRadius     float64        `yaml:"outerRadius"`
	Rings           []float64      `yaml:"rings"`
	FilledRing      int            `yaml:"filledRing"`
	Boundaries      []float64      `yaml:"boundaries"`
	MarkerRadius    float64        `yaml:"markerRadius"`
	MarkerLabelFont string         `yaml:"markerLabelFont"`
	TooltipOffset   Point          `yaml:"tooltipOffset"`
	Colors          LayoutColors   `yaml:"colors"`
	Background      []GradientStop `yaml:"background"`
}

//nolint:tagliatelle // yaml file compatibility
type LayoutColors struct {
	Backing      string `yaml:"backing"`
	FilledRing   string `yaml:"filledRing"`
	Ring         string `yaml:"ring"`
	Boundary     string `yaml:"boundary"`
	MarkerFill   string `yaml:"markerFill"`
	MarkerStroke string `yaml:"markerStroke"`
	MarkerLabel  string `yaml:"markerLabel"`
}

// Bounds accepted by Validate. They keep all pixel values well inside int.
const (
	MaxScale      = 100.0
	MaxBaseRadius = 10000.0
)

var ErrInvalidLayout = errors.New("invalid layout")

// DefaultLayout returns the layout of the Ecoaims 10m air pistol system.
func DefaultLayout() LayoutSpec {
	return LayoutSpec{
		Name:          "Ecoaims 10m Air Pistol",
		Scale:         2.2,
		OuterRadius:   155.5,
		Rings:         []float64{59.5, 5.5, 11.5, 27.5, 43.5},
		FilledRing:    0,
		Boundaries:    []float64{75.5, 91.5, 107.5, 123.5, 139.5, 155.5},
		MarkerRadius:  5,
		TooltipOffset: Point{X: 10, Y: 10},
		Colors: LayoutColors{
			Backing:      "#FFFFFF",
			FilledRing:   "#000000",
			Ring:         "#FFFFFF",
			Boundary:     "#000000",
			MarkerFill:   "#fbff00ff",
			MarkerStroke: "#000000",
			MarkerLabel:  "#000000",
		},
		Background: []GradientStop{
			{Offset: "0%", Color: "#dddddd"},
			{Offset: "100%", Color: "#888888"},
		},
		MarkerLabelFont: "10px",
	}
}

// Radius converts a base value to pixels. The result is truncated to keep
// circles on the pixel grid.
func (l LayoutSpec) Radius(v float64) int {
	return int(math.Floor(0.5 * v * l.Scale))
}

func (l LayoutSpec) OuterPx() int {
	return l.Radius(l.OuterRadius)
}

func (l LayoutSpec) RingsPx() []int {
	return l.radii(l.Rings)
}

func (l LayoutSpec) BoundariesPx() []int {
	return l.radii(l.Boundaries)
}

// MarkerPx is the radius of a shot marker. It does not use the 0.5 factor
// of the ring values.
func (l LayoutSpec) MarkerPx() int {
	return int(math.Floor(l.MarkerRadius * l.Scale))
}

func (l LayoutSpec) radii(values []float64) []int {
	ret := make([]int, len(values))
	for i, v := range values {
		ret[i] = l.Radius(v)
	}
	return ret
}

func (l LayoutSpec) Validate() error {
	if !(l.Scale > 0 && l.Scale <= MaxScale) {
		return fmt.Errorf("%w: scale must be in (0,%v], got %v", ErrInvalidLayout, MaxScale, l.Scale)
	}
	radii := append([]float64{l.OuterRadius, l.MarkerRadius}, l.Rings...)
	radii = append(radii, l.Boundaries...)
	for _, v := range radii {
		if !(v >= 0 && v <= MaxBaseRadius) {
			return fmt.Errorf("%w: radius must be in [0,%v], got %v",
				ErrInvalidLayout, MaxBaseRadius, v)
		}
	}
	if len(l.Rings) == 0 {
		return fmt.Errorf("%w: no rings", ErrInvalidLayout)
	}
	if l.FilledRing < -1 || l.FilledRing >= len(l.Rings) {
		return fmt.Errorf("%w: filled ring %d out of range", ErrInvalidLayout, l.FilledRing)
	}
	if l.MarkerRadius <= 0 {
		return fmt.Errorf("%w: marker radius must be positive", ErrInvalidLayout)
	}
	return nil
}

// LoadLayout reads a layout from a yaml file. Values not present in the
// file are taken from DefaultLayout.
func LoadLayout(path string) (LayoutSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayoutSpec{}, err
	}
	return ParseLayout(data)
}

func ParseLayout(data []byte) (LayoutSpec, error) {
	l := DefaultLayout()
	if err := yaml.Unmarshal(data, &l); err != nil {
		return LayoutSpec{}, err
	}
	if err := l.Validate(); err != nil {
		return LayoutSpec{}, err
	}
	return l, nil
}
