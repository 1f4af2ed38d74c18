package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"
)

const (
	DefaultTargetType  = "10m ISSF Air Pistol"
	DefaultTargetModel = "Ecoaims TAR-170/60L"
	DefaultDescription = "Training Shooting"
)

// Series is an ordered sequence of shots from one shooting session.
// The order determines the marker labels 1..N.
//
//nolint:tagliatelle // client compatibility
type Series struct {
	ID          int             `json:"id,omitempty"`
	Key         string          `json:"key,omitempty"`
	TargetType  string          `json:"targetType,omitempty"`
	TargetModel string          `json:"targetModel,omitempty"`
	Description string          `json:"description,omitempty"`
	SourceID    int             `json:"sourceId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitzero"`
	TotalPoints decimal.Decimal `json:"totalPoints"`
	N           int             `json:"n"`
	TotalT      float64         `json:"totalT,omitempty"`
	Shots       []Shot          `json:"shots"`
}

// Shot is one recorded round. X and Y are offsets from the target center,
// they are unset if the source did not provide them.
type Shot struct {
	X       omit.Val[float64]
	Y       omit.Val[float64]
	Points  Points
	Hit     int
	ShotNum int
	OrigX   omit.Val[float64]
	OrigY   omit.Val[float64]
	T       float64
}

//nolint:tagliatelle // client compatibility
type shotJSON struct {
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Points  Points   `json:"points"`
	Hit     int      `json:"hit,omitempty"`
	ShotNum int      `json:"shotNum,omitempty"`
	OrigX   *float64 `json:"origX,omitempty"`
	OrigY   *float64 `json:"origY,omitempty"`
	T       float64  `json:"t,omitempty"`
}

func NewShot(x, y float64, points Points) Shot {
	return Shot{X: omit.From(x), Y: omit.From(y), Points: points}
}

// Position returns the offset of the shot and whether both coordinates are set.
func (s Shot) Position() (x, y float64, ok bool) {
	x, okX := s.X.Get()
	y, okY := s.Y.Get()
	return x, y, okX && okY
}

func (s Shot) MarshalJSON() ([]byte, error) {
	return json.Marshal(shotJSON{
		X:       ptr(s.X),
		Y:       ptr(s.Y),
		Points:  s.Points,
		Hit:     s.Hit,
		ShotNum: s.ShotNum,
		OrigX:   ptr(s.OrigX),
		OrigY:   ptr(s.OrigY),
		T:       s.T,
	})
}

func (s *Shot) UnmarshalJSON(data []byte) error {
	var raw shotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Shot{
		X:       val(raw.X),
		Y:       val(raw.Y),
		Points:  raw.Points,
		Hit:     raw.Hit,
		ShotNum: raw.ShotNum,
		OrigX:   val(raw.OrigX),
		OrigY:   val(raw.OrigY),
		T:       raw.T,
	}
	return nil
}

func ptr(v omit.Val[float64]) *float64 {
	if f, ok := v.Get(); ok {
		return &f
	}
	return nil
}

func val(f *float64) omit.Val[float64] {
	if f == nil {
		return omit.Val[float64]{}
	}
	return omit.From(*f)
}

// Points is the score of a shot. It is kept as the text the source
// provided (a number like 10.4 or a placeholder like "miss").
type Points struct {
	text    string
	value   decimal.Decimal
	numeric bool
	quoted  bool
}

func PointsFromFloat(f float64) Points {
	d := decimal.NewFromFloat(f)
	return Points{text: d.String(), value: d, numeric: true}
}

// PointsFromString parses s as number if possible, otherwise s is kept
// as placeholder text.
func PointsFromString(s string) Points {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return Points{text: s, value: d, numeric: true, quoted: true}
	}
	return Points{text: s, quoted: true}
}

func (p Points) String() string {
	return p.text
}

// Decimal returns the numeric value, zero for placeholder text.
func (p Points) Decimal() decimal.Decimal {
	return p.value
}

func (p Points) IsNumeric() bool {
	return p.numeric
}

func (p Points) MarshalJSON() ([]byte, error) {
	if p.text == "" {
		return []byte("null"), nil
	}
	if !p.quoted && json.Valid([]byte(p.text)) {
		return []byte(p.text), nil
	}
	return json.Marshal(p.text)
}

func (p *Points) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = Points{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Points{text: s, quoted: true}
		if d, err := decimal.NewFromString(s); err == nil {
			p.value = d
			p.numeric = true
		}
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return err
		}
		*p = Points{text: string(data), value: d, numeric: true}
	}
	return nil
}

// Recalc updates the aggregated values from the shots.
func (s *Series) Recalc() {
	total := decimal.Zero
	totalT := 0.0
	for i := range s.Shots {
		total = total.Add(s.Shots[i].Points.Decimal())
		totalT += s.Shots[i].T
	}
	s.TotalPoints = total
	s.TotalT = totalT
	s.N = len(s.Shots)
}

// ApplyDefaults fills the descriptive fields that are empty.
func (s *Series) ApplyDefaults() {
	if s.TargetType == "" {
		s.TargetType = DefaultTargetType
	}
	if s.TargetModel == "" {
		s.TargetModel = DefaultTargetModel
	}
	if s.Description == "" {
		s.Description = DefaultDescription
	}
}
