package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/cmd/util"
	"github.com/mpapenbr/shotrecord/pkg/config"
	"github.com/mpapenbr/shotrecord/pkg/ecoaims"
	"github.com/mpapenbr/shotrecord/pkg/model"
)

var (
	outDir  string
	export  bool
	created string
)

func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import file",
		Short: "converts Ecoaims data into series files",
		Long: `Converts a single Ecoaims game document or, with --export, a JSON export
of the ekoaims_games table into series files. Games whose created timestamp
matches a series already present in the output directory are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.SetupLogger()
			_, err := runImport(args[0], logger.Named("import"))
			return err
		},
	}
	cmd.Flags().StringVarP(&outDir,
		"out-dir",
		"d",
		".",
		"directory receiving the series files")
	cmd.Flags().BoolVar(&export,
		"export",
		false,
		"if true, the input is read as export of the ekoaims_games table")
	cmd.Flags().StringVar(&created,
		"created",
		"",
		"timestamp of a single game (format "+ecoaims.CreatedLayout+", default: now)")
	cmd.Flags().Float64Var(&config.OriginX,
		"origin-x",
		ecoaims.DefaultOrigin.X,
		"x of the target center in Ecoaims coordinates")
	cmd.Flags().Float64Var(&config.OriginY,
		"origin-y",
		ecoaims.DefaultOrigin.Y,
		"y of the target center in Ecoaims coordinates")
	cmd.Flags().Float64Var(&config.CalibrationX,
		"calibration-x",
		ecoaims.DefaultCalibration.X,
		"x correction applied to Ecoaims coordinates")
	cmd.Flags().Float64Var(&config.CalibrationY,
		"calibration-y",
		ecoaims.DefaultCalibration.Y,
		"y correction applied to Ecoaims coordinates")
	return cmd
}

// runImport converts the input file and returns the names of the written
// series files.
func runImport(input string, logger *log.Logger) ([]string, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	known, err := knownSeries(outDir)
	if err != nil {
		return nil, err
	}
	importer := ecoaims.NewImporter(
		ecoaims.WithOrigin(ecoaims.Offset{X: config.OriginX, Y: config.OriginY}),
		ecoaims.WithCalibration(ecoaims.Offset{X: config.CalibrationX, Y: config.CalibrationY}),
		ecoaims.WithExistsCheck(func(c time.Time) bool { return known[c.Unix()] }),
		ecoaims.WithLogger(logger),
	)

	var series []*model.Series
	if export {
		res, err := importer.ImportExport(data)
		if err != nil {
			return nil, err
		}
		series = res.Series
	} else {
		ts := time.Now().UTC().Truncate(time.Second)
		if created != "" {
			if ts, err = time.Parse(ecoaims.CreatedLayout, created); err != nil {
				return nil, err
			}
		}
		if known[ts.Unix()] {
			logger.Info("series already imported", log.Time("created", ts))
			return nil, nil
		}
		s, err := importer.GameSeries(0, ts, data)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}

	ret := make([]string, 0, len(series))
	for _, s := range series {
		name := filepath.Join(outDir, fileName(s))
		if err := util.WriteJSON(name, s); err != nil {
			return ret, err
		}
		logger.Debug("series written", log.String("file", name))
		ret = append(ret, name)
	}
	logger.Info("import done", log.Int("files", len(ret)))
	return ret, nil
}

func fileName(s *model.Series) string {
	return fmt.Sprintf("series-%s.json", s.CreatedAt.Format("20060102-150405"))
}

// knownSeries collects the creation times of the series in dir.
func knownSeries(dir string) (map[int64]bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	series := lo.FilterMap(files, func(f string, _ int) (*model.Series, bool) {
		s, err := util.ReadSeries(f)
		return s, err == nil && !s.CreatedAt.IsZero()
	})
	return lo.SliceToMap(series, func(s *model.Series) (int64, bool) {
		return s.CreatedAt.Unix(), true
	}), nil
}
