package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/cmd/util"
	"github.com/mpapenbr/shotrecord/pkg/config"
	"github.com/mpapenbr/shotrecord/pkg/ecoaims"
	"github.com/mpapenbr/shotrecord/pkg/endpoints/api"
	"github.com/mpapenbr/shotrecord/pkg/metrics"
	"github.com/mpapenbr/shotrecord/pkg/utils"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"http server listen address")
	cmd.Flags().StringVar(&config.LayoutDir,
		"layout-dir",
		"",
		"directory with <name>.yml layouts selectable by the layout query param")
	cmd.Flags().StringVar(&config.LayoutCacheTTL,
		"layout-cache-ttl",
		"5m",
		"duration a named layout is cached")
	cmd.Flags().IntVar(&config.Width,
		"width",
		api.DefaultWidth,
		"surface width used when a request doesn't provide one")
	cmd.Flags().IntVar(&config.Height,
		"height",
		api.DefaultHeight,
		"surface height used when a request doesn't provide one")
	cmd.Flags().Int64Var(&config.MaxBodySize,
		"max-body-size",
		api.DefaultMaxBodySize,
		"max accepted request body in bytes")
	cmd.Flags().Float64Var(&config.ConsistencyRef,
		"consistency-ref",
		metrics.DefaultConsistencyRef,
		"radial std dev at which the consistency score drops to 0")
	cmd.Flags().StringVar(&config.ShutdownTimeout,
		"shutdown-timeout",
		"10s",
		"max duration to wait for open requests on shutdown")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use stdout for console output)")
	cmd.Flags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for the telemetry endpoint to be ready")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

//nolint:funlen // by design
func startServer() error {
	logger := util.SetupLogger()
	var telemetry *config.Telemetry

	log.Debug("Config:",
		log.String("addr", config.ServerAddr),
		log.String("layout", config.Layout),
		log.Int("width", config.Width),
		log.Int("height", config.Height),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	if config.EnableTelemetry {
		waitForTelemetryEndpoint()
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(context.Background()); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	layout, err := util.Layout()
	if err != nil {
		log.Error("could not load layout", log.ErrorField(err))
		return err
	}
	opts := []api.Option{
		api.WithLogger(logger.Named("api")),
		api.WithLayout(layout),
		api.WithSize(config.Width, config.Height),
		api.WithMaxBodySize(config.MaxBodySize),
		api.WithMetricsOptions(metrics.WithConsistencyRef(config.ConsistencyRef)),
		api.WithImporter(ecoaims.NewImporter(
			ecoaims.WithLogger(logger.Named("ecoaims")))),
	}
	if config.LayoutDir != "" {
		ttl, err := time.ParseDuration(config.LayoutCacheTTL)
		if err != nil {
			log.Warn("Invalid duration value. Setting default 5m", log.ErrorField(err))
			ttl = 5 * time.Minute
		}
		opts = append(opts, api.WithLayoutDir(config.LayoutDir, ttl))
	}
	handler, err := api.NewHandler(opts...)
	if err != nil {
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}

	//nolint:gosec // by design
	server := &http.Server{
		Addr:    config.ServerAddr,
		Handler: h2c.NewHandler(newCORS().Handler(handler.Router()), &http2.Server{}),
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting http server", log.String("addr", config.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-errChan:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}

	timeout, err := time.ParseDuration(config.ShutdownTimeout)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 10s", log.ErrorField(err))
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("Shutdown incomplete", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}

	log.Info("Server terminated")
	return nil
}

func waitForTelemetryEndpoint() {
	if config.TelemetryEndpoint == "stdout" {
		return
	}
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 15s", log.ErrorField(err))
		timeout = 15 * time.Second
	}
	addr := utils.EndpointAddr(config.TelemetryEndpoint)
	if err := utils.WaitForTCP(context.Background(), addr, timeout); err != nil {
		log.Warn("telemetry endpoint not ready", log.ErrorField(err))
	}
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	// allow all origins
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-Trace-ID",
			"X-Invalid-Shots",
		},
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
