// Package api provides the http endpoints for rendering series and
// computing their metrics.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/shotrecord/log"
	"github.com/mpapenbr/shotrecord/pkg/ecoaims"
	"github.com/mpapenbr/shotrecord/pkg/metrics"
	"github.com/mpapenbr/shotrecord/pkg/model"
	"github.com/mpapenbr/shotrecord/pkg/target"
	"github.com/mpapenbr/shotrecord/pkg/target/scene"
	"github.com/mpapenbr/shotrecord/pkg/utils/cache"
)

const (
	requestIDHeader    = "X-Request-ID"
	traceIDHeader      = "X-Trace-ID"
	invalidShotsHeader = "X-Invalid-Shots"
	contentTypeSVG     = "image/svg+xml"

	DefaultWidth       = 400
	DefaultHeight      = 400
	DefaultMaxBodySize = 1 << 20
)

var (
	ErrUnknownLayout = errors.New("unknown layout")
	layoutName       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type (
	Option  func(h *Handler)
	Handler struct {
		log          *log.Logger
		tracer       trace.Tracer
		meter        metric.Meter
		layout       target.LayoutSpec
		layouts      cache.Cache[string, target.LayoutSpec]
		importer     *ecoaims.Importer
		metricsOpts  []metrics.Option
		width        int
		height       int
		maxBodySize  int64
		renders      metric.Int64Counter
		invalidShots metric.Int64Counter
	}
)

func WithLayout(l target.LayoutSpec) Option {
	return func(h *Handler) {
		h.layout = l
	}
}

// WithLayoutDir enables the layout query param. Layouts are read from
// <dir>/<name>.yml and kept for ttl.
func WithLayoutDir(dir string, ttl time.Duration) Option {
	return func(h *Handler) {
		h.layouts = cache.New(
			cache.WithExpiration[string, target.LayoutSpec](ttl),
			cache.WithLogger[string, target.LayoutSpec](log.Default().Named("api.layouts")),
			cache.WithLoader[string, target.LayoutSpec](
				func(_ context.Context, name string) (target.LayoutSpec, error) {
					return loadLayout(dir, name)
				}),
		)
	}
}

func loadLayout(dir, name string) (target.LayoutSpec, error) {
	if !layoutName.MatchString(name) {
		return target.LayoutSpec{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	l, err := target.LoadLayout(filepath.Join(dir, name+".yml"))
	if errors.Is(err, os.ErrNotExist) {
		return target.LayoutSpec{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return l, err
}

func WithImporter(i *ecoaims.Importer) Option {
	return func(h *Handler) {
		h.importer = i
	}
}

func WithMetricsOptions(opts ...metrics.Option) Option {
	return func(h *Handler) {
		h.metricsOpts = opts
	}
}

// WithSize sets the surface size used when a request doesn't provide one.
func WithSize(width, height int) Option {
	return func(h *Handler) {
		h.width = width
		h.height = height
	}
}

func WithMaxBodySize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(h *Handler) {
		h.tracer = tracer
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(h *Handler) {
		h.meter = meter
	}
}

func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		h.log = l
	}
}

func NewHandler(opts ...Option) (*Handler, error) {
	h := &Handler{
		log:         log.Default().Named("api"),
		layout:      target.DefaultLayout(),
		width:       DefaultWidth,
		height:      DefaultHeight,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer("shotrecord")
	}
	if h.meter == nil {
		h.meter = otel.Meter("shotrecord")
	}
	if h.importer == nil {
		h.importer = ecoaims.NewImporter()
	}
	var err error
	if h.renders, err = h.meter.Int64Counter("shotrecord.renders",
		metric.WithDescription("number of rendered series")); err != nil {
		return nil, err
	}
	if h.invalidShots, err = h.meter.Int64Counter("shotrecord.invalid_shots",
		metric.WithDescription("number of shots skipped while rendering")); err != nil {
		return nil, err
	}
	return h, nil
}

// Router returns the routes served by h.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestContext)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/target/render", h.Render)
		r.Post("/series/metrics", h.Metrics)
		r.Post("/series/import", h.Import)
	})
	return r
}

// requestContext assigns a request id, starts the request span and puts a
// request scoped logger into the context.
func (h *Handler) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		ctx, span := h.tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithAttributes(attribute.String("request.id", reqID)))
		defer span.End()

		w.Header().Set(requestIDHeader, reqID)
		if sc := span.SpanContext(); sc.IsValid() {
			w.Header().Set(traceIDHeader, sc.TraceID().String())
		}
		logger := h.log.With(log.String("requestId", reqID))
		ctx = log.AddToContext(ctx, logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status", ww.Status()))
		logger.Debug("request served",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", ww.Status()),
			log.Duration("duration", time.Since(start)))
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Render draws the posted series and responds with the svg document.
// Query params: width, height, interactive, layout
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	logger := log.GetFromContext(r.Context())
	layout, err := h.requestLayout(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrUnknownLayout) {
			status = http.StatusNotFound
		}
		respondError(w, status, "invalid layout", err)
		return
	}
	width, err := intParam(r, "width", h.width)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid width", err)
		return
	}
	height, err := intParam(r, "height", h.height)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid height", err)
		return
	}
	interactive, err := boolParam(r, "interactive", false)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid interactive", err)
		return
	}
	series, ok := h.readSeries(w, r)
	if !ok {
		return
	}

	_, span := h.tracer.Start(r.Context(), "render",
		trace.WithAttributes(
			attribute.Int("width", width),
			attribute.Int("height", height),
			attribute.Int("shots", len(series.Shots))))
	defer span.End()

	sc := scene.New(width, height)
	renderer := target.NewRenderer(target.WithLayout(layout), target.WithLogger(logger))
	err = renderer.Render(series, sc, nil)
	if errors.Is(err, target.ErrInvalidSurface) {
		respondError(w, http.StatusBadRequest, "invalid surface", err)
		return
	}
	skipped := InvalidShots(err)
	h.renders.Add(r.Context(), 1)
	if len(skipped) > 0 {
		h.invalidShots.Add(r.Context(), int64(len(skipped)))
		span.SetAttributes(attribute.Int("invalid", len(skipped)))
		w.Header().Set(invalidShotsHeader, joinInts(skipped))
	}

	var opts []scene.SVGOption
	if interactive {
		opts = append(opts, scene.WithInteractiveTooltip(layout.TooltipOffset))
	}
	var buf bytes.Buffer
	if err := sc.WriteSVG(&buf, opts...); err != nil {
		respondError(w, http.StatusInternalServerError, "could not write svg", err)
		return
	}
	w.Header().Set("Content-Type", contentTypeSVG)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("could not write response", log.ErrorField(err))
	}
}

func (h *Handler) requestLayout(r *http.Request) (target.LayoutSpec, error) {
	name := r.URL.Query().Get("layout")
	if name == "" {
		return h.layout, nil
	}
	if h.layouts == nil {
		return target.LayoutSpec{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return h.layouts.Get(r.Context(), name)
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	series, ok := h.readSeries(w, r)
	if !ok {
		return
	}
	m, err := metrics.Compute(series.Shots, h.metricsOpts...)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "no metrics available", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Import converts Ecoaims data into series.
// With query param export=true the body is read as table export, otherwise
// as a single game document.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	export, err := boolParam(r, "export", false)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid export", err)
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if export {
		res, err := h.importer.ImportExport(body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid export", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"series":  res.Series,
			"skipped": res.Skipped,
		})
		return
	}
	s, err := h.importer.GameSeries(0, time.Now().UTC().Truncate(time.Second), body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game", err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, h.maxBodySize)); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "body too large", err)
		} else {
			respondError(w, http.StatusBadRequest, "could not read body", err)
		}
		return nil, false
	}
	return buf.Bytes(), true
}

func (h *Handler) readSeries(w http.ResponseWriter, r *http.Request) (*model.Series, bool) {
	body, ok := h.readBody(w, r)
	if !ok {
		return nil, false
	}
	var s model.Series
	if err := json.Unmarshal(body, &s); err != nil {
		respondError(w, http.StatusBadRequest, "invalid series", err)
		return nil, false
	}
	return &s, true
}

// InvalidShots returns the 1-based numbers of the shots reported in err.
func InvalidShots(err error) []int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var ret []int
		for _, e := range joined.Unwrap() {
			ret = append(ret, InvalidShots(e)...)
		}
		return ret
	}
	var ise *target.InvalidShotError
	if errors.As(err, &ise) {
		return []int{ise.Index + 1}
	}
	return nil
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i := range v {
		s[i] = strconv.Itoa(v[i])
	}
	return strings.Join(s, ",")
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		log.Warn("could not encode response", log.ErrorField(err))
		http.Error(w, "could not encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Warn("could not write response", log.ErrorField(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]any{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	respondJSON(w, status, body)
}
