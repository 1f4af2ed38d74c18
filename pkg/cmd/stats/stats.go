package stats

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/cmd/util"
	"github.com/mpapenbr/shotrecord/pkg/config"
	"github.com/mpapenbr/shotrecord/pkg/metrics"
	"github.com/mpapenbr/shotrecord/pkg/model"
	"github.com/mpapenbr/shotrecord/pkg/training"
)

var outputFormat string

func NewMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics series.json...",
		Short: "prints the precision metrics of series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			return printMetrics(cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().Float64Var(&config.ConsistencyRef,
		"consistency-ref",
		metrics.DefaultConsistencyRef,
		"radial std dev at which the consistency score drops to 0")
	addOutputFlag(cmd)
	return cmd
}

func NewWeeklyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly series.json...",
		Short: "prints the number of series per ISO week",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			return printWeekly(cmd.OutOrStdout(), args, time.Now())
		},
	}
	cmd.Flags().IntVar(&config.Weeks,
		"weeks",
		training.DefaultWeeks,
		"number of weeks to report")
	addOutputFlag(cmd)
	return cmd
}

func NewTrendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend series.json...",
		Short: "prints the total points of series ordered by creation time",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			return printTrend(cmd.OutOrStdout(), args)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormat,
		"output",
		"yaml",
		"output format (json, yaml)")
}

//nolint:tagliatelle // client compatibility
type seriesMetrics struct {
	File        string           `json:"file" yaml:"file"`
	Key         string           `json:"key,omitempty" yaml:"key,omitempty"`
	TotalPoints string           `json:"totalPoints" yaml:"totalPoints"`
	Metrics     *metrics.Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

func printMetrics(out io.Writer, files []string) error {
	ret := make([]seriesMetrics, 0, len(files))
	for _, f := range files {
		s, err := util.ReadSeries(f)
		if err != nil {
			return err
		}
		s.Recalc()
		entry := seriesMetrics{File: f, Key: s.Key, TotalPoints: s.TotalPoints.String()}
		m, err := metrics.Compute(s.Shots, metrics.WithConsistencyRef(config.ConsistencyRef))
		switch {
		case errors.Is(err, metrics.ErrNoShots):
			log.Warn("no metrics for series", log.String("file", f))
		case err != nil:
			return err
		default:
			entry.Metrics = m
		}
		ret = append(ret, entry)
	}
	return util.Print(out, outputFormat, ret)
}

func printWeekly(out io.Writer, files []string, now time.Time) error {
	series, err := readAll(files)
	if err != nil {
		return err
	}
	stamps := lo.FilterMap(series, func(s *model.Series, _ int) (time.Time, bool) {
		return s.CreatedAt, !s.CreatedAt.IsZero()
	})
	return util.Print(out, outputFormat, training.WeeklyCounts(stamps, now, config.Weeks))
}

func printTrend(out io.Writer, files []string) error {
	series, err := readAll(files)
	if err != nil {
		return err
	}
	for _, s := range series {
		s.Recalc()
	}
	trend, err := training.Trend(series)
	if err != nil {
		return err
	}
	return util.Print(out, outputFormat, trend)
}

// readAll skips unparsable files but fails on missing ones.
func readAll(files []string) ([]*model.Series, error) {
	series := make([]*model.Series, 0, len(files))
	for _, f := range files {
		s, err := util.ReadSeries(f)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			log.Warn("skipping file", log.String("file", f), log.ErrorField(err))
			continue
		}
		series = append(series, s)
	}
	return series, nil
}
