package training

import (
	"fmt"
	"time"
)

const DefaultWeeks = 52

//nolint:tagliatelle // client compatibility
type WeekCount struct {
	Week  string `json:"week" yaml:"week"`
	Count int    `json:"count" yaml:"count"`
}

type yearWeek struct {
	year, week int
}

// StartMonday returns the Monday (00:00) of the week which was weeks
// before now.
func StartMonday(now time.Time, weeks int) time.Time {
	start := now.AddDate(0, 0, -7*weeks)
	offset := (int(start.Weekday()) + 6) % 7
	d := start.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// WeeklyCounts counts the timestamps per ISO week for the last weeks
// before now. Weeks without series are included with count 0, timestamps
// outside of the range are ignored.
func WeeklyCounts(stamps []time.Time, now time.Time, weeks int) []WeekCount {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	start := StartMonday(now, weeks)
	var all []yearWeek
	for cur := start; !cur.After(now); cur = cur.AddDate(0, 0, 7) {
		y, w := cur.ISOWeek()
		all = append(all, yearWeek{y, w})
	}

	counts := map[yearWeek]int{}
	for _, ts := range stamps {
		ts = ts.In(now.Location())
		if ts.Before(start) || ts.After(now) {
			continue
		}
		y, w := ts.ISOWeek()
		counts[yearWeek{y, w}]++
	}

	ret := make([]WeekCount, len(all))
	for i, yw := range all {
		ret[i] = WeekCount{
			Week:  fmt.Sprintf("%d-W%02d", yw.year, yw.week),
			Count: counts[yw],
		}
	}
	return ret
}
