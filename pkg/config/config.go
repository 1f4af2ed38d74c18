package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules applied to the logger
	Layout            string  // path to a target layout yaml file (empty: builtin)
	LayoutDir         string  // directory with named layouts selectable by api requests
	LayoutCacheTTL    string  // how long a named layout is kept before it is read again
	Width             int     // width of the rendered surface
	Height            int     // height of the rendered surface
	Interactive       bool    // if true, rendered SVGs contain the hover tooltip script
	ServerAddr        string  // listen addr for the http server
	EnableTelemetry   bool    // enable telemetry
	TelemetryEndpoint string  // endpoint for telemetry ("stdout" for console exporters)
	ProfilingPort     int     // port for profiling
	WaitForServices   string  // duration to wait for the telemetry endpoint
	ShutdownTimeout   string  // max duration to wait for open requests on shutdown
	MaxBodySize       int64   // max accepted request body in bytes
	OriginX           float64 // x of the target center in Ecoaims coordinates
	OriginY           float64 // y of the target center in Ecoaims coordinates
	CalibrationX      float64 // x correction applied to Ecoaims coordinates
	CalibrationY      float64 // y correction applied to Ecoaims coordinates
	ConsistencyRef    float64 // radial std dev at which consistency drops to 0
	Weeks             int     // number of weeks for weekly counts
)
