//nolint:lll,funlen // readablity
package ecoaims

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

const sampleGame = `{
	"series": [
		{"shot": {"shotNumber": 2, "x": 290, "y": 245, "points": 9.1, "hit": 1, "time": 2.5}},
		{"shot": false},
		{"shot": {"shotNumber": 1, "x": 330, "y": 235, "points": 10.4, "hit": 1, "time": 1.5}}
	],
	"settings": {"mode": "training"}
}`

func TestExtractShots(t *testing.T) {
	shots, err := NewImporter().ExtractShots([]byte(sampleGame))
	assert.NilError(t, err)
	assert.Equal(t, len(shots), 2)

	first := shots[0]
	assert.Equal(t, first.ShotNum, 1)
	x, y, ok := first.Position()
	assert.Assert(t, ok)
	// 330 - 20 - 300, 235 + 10 - 250
	assert.Equal(t, x, 10.0)
	assert.Equal(t, y, -5.0)
	ox, _ := first.OrigX.Get()
	assert.Equal(t, ox, 330.0)
	assert.Equal(t, first.Points.String(), "10.4")

	x, y, _ = shots[1].Position()
	assert.Equal(t, x, -30.0)
	assert.Equal(t, y, 5.0)
}

func TestExtractShotsWithoutCalibration(t *testing.T) {
	i := NewImporter(WithCalibration(Offset{}), WithOrigin(Offset{X: 100, Y: 100}))
	shots, err := i.ExtractShots([]byte(`{"a":{"b":[{"shot":{"x":110,"y":90,"points":8}}]}}`))
	assert.NilError(t, err)
	assert.Equal(t, len(shots), 1)
	x, y, _ := shots[0].Position()
	assert.Equal(t, x, 10.0)
	assert.Equal(t, y, -10.0)
}

func TestExtractShotsMissingCoordinates(t *testing.T) {
	shots, err := NewImporter().ExtractShots([]byte(`{"shot":{"points":0}}`))
	assert.NilError(t, err)
	_, _, ok := shots[0].Position()
	assert.Assert(t, !ok)
}

func TestExtractShotsDocumentOrder(t *testing.T) {
	game := `{
		"d": {"shot": {"x": 300, "y": 250, "points": 1}},
		"b": {"shot": {"x": 300, "y": 250, "points": 2}},
		"shot": {"points": 3, "nested": {"shot": {"points": 99}}},
		"a": [{"shot": false}, {"shot": {"x": 300, "y": 250, "points": 4}}],
		"c": {"shot": {"x": 300, "y": 250, "points": 5, "shotNumber": 1}}
	}`
	for range 20 {
		shots, err := NewImporter().ExtractShots([]byte(game))
		assert.NilError(t, err)
		got := make([]string, 0, len(shots))
		for _, s := range shots {
			got = append(got, s.Points.String())
		}
		assert.DeepEqual(t, got, []string{"1", "2", "3", "4", "5"})
	}
}

func TestExtractShotsInvalid(t *testing.T) {
	_, err := NewImporter().ExtractShots([]byte(`{"shot":`))
	assert.Assert(t, errors.Is(err, ErrInvalidGame))
}

func TestGameSeries(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s, err := NewImporter().GameSeries(7, created, []byte(sampleGame))
	assert.NilError(t, err)
	assert.Equal(t, s.N, 2)
	assert.Equal(t, s.TotalPoints.String(), "19.5")
	assert.Equal(t, s.TotalT, 4.0)
	assert.Equal(t, s.SourceID, 7)
	assert.Equal(t, s.TargetModel, "Ecoaims TAR-170/60L")
	assert.Assert(t, s.Key != "")
}

func TestImportExport(t *testing.T) {
	export := `[
		{"id": 2, "game": "{\"shot\":{\"x\":320,\"y\":240,\"points\":10.9}}", "created": "2025-03-02 09:00:00"},
		{"id": 1, "game": {"shot":{"x":320,"y":240,"points":9}}, "created": "2025-03-01 09:00:00"},
		{"id": 3, "game": "{}", "created": "2025-03-02 09:00:00"},
		{"id": 4, "game": "{}", "created": "2025-01-01 08:00:00"}
	]`
	known := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	i := NewImporter(WithExistsCheck(func(c time.Time) bool { return c.Equal(known) }))
	res, err := i.ImportExport([]byte(export))
	assert.NilError(t, err)
	assert.Equal(t, res.Skipped, 2)
	assert.Equal(t, len(res.Series), 2)
	assert.Equal(t, res.Series[0].SourceID, 1)
	assert.Equal(t, res.Series[1].SourceID, 2)
	assert.Equal(t, res.Series[1].TotalPoints.String(), "10.9")
}

func TestImportExportBadTimestamp(t *testing.T) {
	_, err := NewImporter().ImportExport([]byte(`[{"id":1,"game":"{}","created":"yesterday"}]`))
	assert.ErrorContains(t, err, "row 1")
}
