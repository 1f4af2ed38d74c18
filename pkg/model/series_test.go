//nolint:funlen // ok for tests
package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPointsUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantText    string
		wantNumeric bool
		wantValue   decimal.Decimal
	}{
		{name: "number", data: `10.4`, wantText: "10.4", wantNumeric: true, wantValue: decimal.RequireFromString("10.4")},
		{name: "integer", data: `9`, wantText: "9", wantNumeric: true, wantValue: decimal.NewFromInt(9)},
		{name: "numeric string", data: `"8.7"`, wantText: "8.7", wantNumeric: true, wantValue: decimal.RequireFromString("8.7")},
		{name: "placeholder", data: `"miss"`, wantText: "miss", wantValue: decimal.Zero},
		{name: "null", data: `null`, wantText: "", wantValue: decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Points
			err := json.Unmarshal([]byte(tt.data), &p)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantText, p.String())
			assert.Equal(t, tt.wantNumeric, p.IsNumeric())
			assert.True(t, tt.wantValue.Equal(p.Decimal()), "value %s", p.Decimal())
		})
	}
}

func TestShotMissingCoordinates(t *testing.T) {
	var s Shot
	err := json.Unmarshal([]byte(`{"x": 3.5, "points": 10.1}`), &s)
	assert.NoError(t, err)
	x, _, ok := s.Position()
	assert.False(t, ok)
	assert.Equal(t, 3.5, x)
	assert.Equal(t, "10.1", s.Points.String())
}

func TestShotMarshalKeepsPoints(t *testing.T) {
	shots := []Shot{
		NewShot(10, -5, PointsFromString("miss")),
		NewShot(0, 0, PointsFromFloat(10.4)),
	}
	data, err := json.Marshal(shots)
	assert.NoError(t, err)
	assert.JSONEq(t, `[{"x":10,"y":-5,"points":"miss"},{"x":0,"y":0,"points":10.4}]`, string(data))
}

func TestSeriesRecalc(t *testing.T) {
	s := Series{Shots: []Shot{
		{Points: PointsFromFloat(10.4), T: 1.5},
		{Points: PointsFromFloat(9.1), T: 2.0},
		{Points: PointsFromString("miss")},
	}}
	s.Recalc()
	s.ApplyDefaults()
	assert.Equal(t, 3, s.N)
	assert.Equal(t, "19.5", s.TotalPoints.String())
	assert.InDelta(t, 3.5, s.TotalT, 1e-9)
	assert.Equal(t, DefaultTargetType, s.TargetType)
	assert.Equal(t, DefaultTargetModel, s.TargetModel)
}
