package render

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/cmd/util"
	"github.com/mpapenbr/shotrecord/pkg/config"
	"github.com/mpapenbr/shotrecord/pkg/target"
	"github.com/mpapenbr/shotrecord/pkg/target/scene"
)

var (
	output string
	watch  bool
)

func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render series.json",
		Short: "renders a series as svg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.SetupLogger()
			j := &job{
				input:       args[0],
				output:      output,
				layoutPath:  config.Layout,
				width:       config.Width,
				height:      config.Height,
				interactive: config.Interactive,
				log:         logger.Named("render"),
			}
			if watch {
				return j.watch(cmd.Context())
			}
			return j.run()
		},
	}
	cmd.Flags().StringVarP(&output,
		"output",
		"o",
		"",
		"svg output file (default: input file with .svg extension)")
	cmd.Flags().IntVar(&config.Width,
		"width",
		400,
		"width of the rendered surface")
	cmd.Flags().IntVar(&config.Height,
		"height",
		400,
		"height of the rendered surface")
	cmd.Flags().BoolVar(&config.Interactive,
		"interactive",
		false,
		"if true, the svg shows the score of a hovered marker")
	cmd.Flags().BoolVar(&watch,
		"watch",
		false,
		"render again whenever the series or layout file changes")
	return cmd
}

type job struct {
	input       string
	output      string
	layoutPath  string
	width       int
	height      int
	interactive bool
	log         *log.Logger
}

func (j *job) outputFile() string {
	if j.output != "" {
		return j.output
	}
	return strings.TrimSuffix(j.input, filepath.Ext(j.input)) + ".svg"
}

func (j *job) layout() (target.LayoutSpec, error) {
	if j.layoutPath == "" {
		return target.DefaultLayout(), nil
	}
	return target.LoadLayout(j.layoutPath)
}

// run renders the input file once. Shots which could not be placed are
// logged, they don't fail the run.
func (j *job) run() error {
	layout, err := j.layout()
	if err != nil {
		return err
	}
	series, err := util.ReadSeries(j.input)
	if err != nil {
		return err
	}
	sc := scene.New(j.width, j.height)
	r := target.NewRenderer(target.WithLayout(layout), target.WithLogger(j.log))
	if err = r.Render(series, sc, nil); err != nil {
		if !errors.Is(err, target.ErrInvalidShotData) {
			return err
		}
		j.log.Warn("some shots were skipped", log.ErrorField(err))
	}

	var opts []scene.SVGOption
	if j.interactive {
		opts = append(opts, scene.WithInteractiveTooltip(layout.TooltipOffset))
	}
	var buf bytes.Buffer
	if err := sc.WriteSVG(&buf, opts...); err != nil {
		return err
	}
	out := j.outputFile()
	if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
		return err
	}
	j.log.Info("series rendered",
		log.String("input", j.input),
		log.String("output", out),
		log.Int("shots", len(series.Shots)))
	return nil
}
