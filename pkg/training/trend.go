package training

import (
	"errors"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/shotrecord/pkg/model"
)

var ErrNoSeries = errors.New("no series with creation time")

//nolint:tagliatelle // client compatibility
type TrendPoint struct {
	Created time.Time `json:"created" yaml:"created"`
	Points  float64   `json:"points" yaml:"points"`
}

// Trend lists the total points of the series ordered by creation time,
// rounded to one decimal. Series without creation time are ignored.
func Trend(series []*model.Series) ([]TrendPoint, error) {
	ret := lo.FilterMap(series, func(s *model.Series, _ int) (TrendPoint, bool) {
		return TrendPoint{
			Created: s.CreatedAt.Truncate(time.Second),
			Points:  s.TotalPoints.Round(1).InexactFloat64(),
		}, !s.CreatedAt.IsZero()
	})
	if len(ret) == 0 {
		return nil, ErrNoSeries
	}
	sort.SliceStable(ret, func(a, b int) bool {
		return ret[a].Created.Before(ret[b].Created)
	})
	return ret, nil
}
