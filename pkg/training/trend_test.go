package training

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/shotrecord/pkg/model"
)

func series(created time.Time, total string) *model.Series {
	return &model.Series{CreatedAt: created, TotalPoints: decimal.RequireFromString(total)}
}

func TestTrend(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	got, err := Trend([]*model.Series{
		series(d3, "95.25"),
		series(time.Time{}, "100"),
		series(d1, "88.04"),
		series(d2, "90.96"),
	})
	require.NoError(t, err)
	assert.Equal(t, []TrendPoint{
		{Created: d1, Points: 88.0},
		{Created: d2, Points: 91.0},
		{Created: d3, Points: 95.3},
	}, got)
}

func TestTrendEmpty(t *testing.T) {
	_, err := Trend([]*model.Series{series(time.Time{}, "10")})
	assert.ErrorIs(t, err, ErrNoSeries)
	_, err = Trend(nil)
	assert.ErrorIs(t, err, ErrNoSeries)
}
