// Package ecoaims converts data recorded by the Ecoaims training system
// into series.
//
// The game data is a JSON document where each fired round is found below
// a "shot" key at any depth ("shot": false marks an empty slot). Exports of
// the ekoaims_games table are read as produced by
//
//	sqlite3 -json ecoaims.db "select id, game, created from ekoaims_games"
package ecoaims

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/model"
)

const CreatedLayout = "2006-01-02 15:04:05"

var ErrInvalidGame = errors.New("invalid game data")

// Offset is a 2D offset in target units.
type Offset struct {
	X, Y float64
}

var (
	// DefaultOrigin is the target center in Ecoaims coordinates.
	DefaultOrigin = Offset{X: 300, Y: 250}
	// DefaultCalibration corrects the systematic offset of the recorder.
	DefaultCalibration = Offset{X: -20, Y: 10}
)

type (
	Option   func(i *Importer)
	Importer struct {
		origin      Offset
		calibration Offset
		exists      func(created time.Time) bool
		log         *log.Logger
	}
)

func WithOrigin(o Offset) Option {
	return func(i *Importer) {
		i.origin = o
	}
}

func WithCalibration(c Offset) Option {
	return func(i *Importer) {
		i.calibration = c
	}
}

// WithExistsCheck registers a lookup for already imported series.
// Rows for which f returns true are skipped.
func WithExistsCheck(f func(created time.Time) bool) Option {
	return func(i *Importer) {
		i.exists = f
	}
}

func WithLogger(l *log.Logger) Option {
	return func(i *Importer) {
		i.log = l
	}
}

func NewImporter(opts ...Option) *Importer {
	i := &Importer{
		origin:      DefaultOrigin,
		calibration: DefaultCalibration,
		exists:      func(time.Time) bool { return false },
		log:         log.Default().Named("ecoaims"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ExtractShots collects all shots of a game document in document order.
// If every shot carries a shot number, the recorder's numbering decides the
// order. Coordinates are converted to offsets from the target center, the
// recorded values are kept in OrigX and OrigY.
func (i *Importer) ExtractShots(game []byte) ([]model.Shot, error) {
	c := &shotCollector{}
	if err := oj.Tokenize(game, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}
	shots := lo.Map(c.shots, func(m map[string]any, _ int) model.Shot {
		return i.convert(m)
	})
	if lo.EveryBy(shots, func(s model.Shot) bool { return s.ShotNum > 0 }) {
		sort.SliceStable(shots, func(a, b int) bool {
			return shots[a].ShotNum < shots[b].ShotNum
		})
	}
	return shots, nil
}

func (i *Importer) convert(m map[string]any) model.Shot {
	s := model.Shot{
		Points:  model.PointsFromFloat(number(m["points"])),
		Hit:     int(number(m["hit"])),
		ShotNum: int(number(m["shotNumber"])),
		T:       number(m["time"]),
	}
	x, okX := m["x"]
	y, okY := m["y"]
	if okX && okY {
		ox, oy := number(x), number(y)
		s.OrigX = omit.From(ox)
		s.OrigY = omit.From(oy)
		s.X = omit.From(ox + i.calibration.X - i.origin.X)
		s.Y = omit.From(oy + i.calibration.Y - i.origin.Y)
	}
	return s
}

// GameSeries builds the series of a single game.
//
//nolint:whitespace // can't make both editor and linter happy
func (i *Importer) GameSeries(
	sourceID int, created time.Time, game []byte,
) (*model.Series, error) {
	shots, err := i.ExtractShots(game)
	if err != nil {
		return nil, err
	}
	s := &model.Series{
		Key:       uuid.Must(uuid.NewV7()).String(),
		SourceID:  sourceID,
		CreatedAt: created,
		Shots:     shots,
	}
	s.ApplyDefaults()
	s.Recalc()
	return s, nil
}

type exportRow struct {
	ID      int             `json:"id"`
	Game    json.RawMessage `json:"game"`
	Created string          `json:"created"`
}

type Result struct {
	Series  []*model.Series
	Skipped int
}

// ImportExport reads a JSON export of the ekoaims_games table. Rows with a
// created timestamp already seen are skipped.
func (i *Importer) ImportExport(data []byte) (*Result, error) {
	var rows []exportRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].ID < rows[b].ID })

	ret := &Result{}
	seen := map[time.Time]bool{}
	for _, row := range rows {
		created, err := time.Parse(CreatedLayout, row.Created)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.ID, err)
		}
		if seen[created] || i.exists(created) {
			ret.Skipped++
			continue
		}
		seen[created] = true
		game, err := unquote(row.Game)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.ID, err)
		}
		s, err := i.GameSeries(row.ID, created, game)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.ID, err)
		}
		i.log.Debug("imported series",
			log.Int("sourceId", row.ID),
			log.Time("created", created),
			log.String("points", s.TotalPoints.String()),
			log.Int("shots", s.N))
		ret.Series = append(ret.Series, s)
	}
	i.log.Info("import completed",
		log.Int("imported", len(ret.Series)),
		log.Int("skipped", ret.Skipped))
	return ret, nil
}

// the game column holds the document as string
func unquote(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return raw, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
