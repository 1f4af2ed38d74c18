package stats

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/shotrecord/pkg/config"
	"github.com/mpapenbr/shotrecord/pkg/training"
)

func writeSeries(t *testing.T, dir, name, content string) string {
	t.Helper()
	f := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(f, []byte(content), 0o600))
	return f
}

func TestPrintMetrics(t *testing.T) {
	dir := t.TempDir()
	a := writeSeries(t, dir, "a.json",
		`{"key":"a","shots":[{"x":10,"y":0,"points":10.1},{"x":-10,"y":0,"points":9.9}]}`)
	b := writeSeries(t, dir, "b.json", `{"key":"b","shots":[{"points":"miss"}]}`)
	outputFormat = "json"
	config.ConsistencyRef = 50

	var buf bytes.Buffer
	require.NoError(t, printMetrics(&buf, []string{a, b}))
	var got []seriesMetrics
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "20", got[0].TotalPoints)
	require.NotNil(t, got[0].Metrics)
	assert.Equal(t, 2, got[0].Metrics.N)
	assert.InDelta(t, 20.0, got[0].Metrics.ExtremeSpread, 1e-9)
	assert.Nil(t, got[1].Metrics)
}

func TestPrintMetricsMissingFile(t *testing.T) {
	outputFormat = "json"
	var buf bytes.Buffer
	assert.Error(t, printMetrics(&buf, []string{filepath.Join(t.TempDir(), "x.json")}))
}

func TestPrintWeekly(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeSeries(t, dir, "a.json", `{"createdAt":"2025-01-06T10:00:00Z","shots":[]}`),
		writeSeries(t, dir, "b.json", `{"createdAt":"2025-01-07T10:00:00Z","shots":[]}`),
		writeSeries(t, dir, "c.json", `{"shots":[]}`),
		writeSeries(t, dir, "broken.json", `{"shots":`),
	}
	outputFormat = "yaml"
	config.Weeks = 1

	var buf bytes.Buffer
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	require.NoError(t, printWeekly(&buf, files, now))
	var got []training.WeekCount
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []training.WeekCount{
		{Week: "2025-W01", Count: 0},
		{Week: "2025-W02", Count: 2},
	}, got)
}

func TestUnknownOutputFormat(t *testing.T) {
	dir := t.TempDir()
	f := writeSeries(t, dir, "a.json", `{"shots":[]}`)
	outputFormat = "xml"
	config.Weeks = 1
	var buf bytes.Buffer
	assert.ErrorContains(t, printWeekly(&buf, []string{f}, time.Now()), "unknown output format")
}

func TestPrintTrend(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeSeries(t, dir, "b.json",
			`{"createdAt":"2025-01-07T10:00:00Z","shots":[{"points":10.4},{"points":9.35}]}`),
		writeSeries(t, dir, "a.json",
			`{"createdAt":"2025-01-06T10:00:00Z","shots":[{"points":8}]}`),
		writeSeries(t, dir, "c.json", `{"shots":[{"points":10}]}`),
	}
	outputFormat = "json"

	var buf bytes.Buffer
	require.NoError(t, printTrend(&buf, files))
	var got []training.TrendPoint
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []training.TrendPoint{
		{Created: time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC), Points: 8},
		{Created: time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC), Points: 19.8},
	}, got)
}

func TestPrintTrendWithoutCreated(t *testing.T) {
	f := writeSeries(t, t.TempDir(), "a.json", `{"shots":[]}`)
	outputFormat = "json"
	var buf bytes.Buffer
	assert.ErrorIs(t, printTrend(&buf, []string{f}), training.ErrNoSeries)
}
