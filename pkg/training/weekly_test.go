package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMonday(t *testing.T) {
	// Wednesday
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)
	got := StartMonday(now, 1)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), got)

	// Sunday belongs to the week starting the Monday before
	now = time.Date(2025, 3, 16, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), StartMonday(now, 1))
}

func TestWeeklyCounts(t *testing.T) {
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC), // 2025-W01
		time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC),   // 2025-W01
		time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC),   // 2025-W02
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),   // outside
	}
	got := WeeklyCounts(stamps, now, 2)
	require.Equal(t, []WeekCount{
		{Week: "2024-W52", Count: 0},
		{Week: "2025-W01", Count: 2},
		{Week: "2025-W02", Count: 1},
	}, got)
}

func TestWeeklyCountsDefault(t *testing.T) {
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	got := WeeklyCounts(nil, now, 0)
	assert.Len(t, got, DefaultWeeks+1)
	assert.Equal(t, "2025-W23", got[len(got)-1].Week)
	for _, wc := range got {
		assert.Zero(t, wc.Count)
	}
}
