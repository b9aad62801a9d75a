// Package http is the public HTTP surface of the pcaxis server: dataset
// flattening, rivers/lakes reference tables, health and metrics.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
	"github.com/nikolozi2001/pcaxis-server-sub000/engine"
	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
	"github.com/nikolozi2001/pcaxis-server-sub000/health"
	"github.com/nikolozi2001/pcaxis-server-sub000/metric"
	"github.com/nikolozi2001/pcaxis-server-sub000/waterdata"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultMaxSeries      = 256
	defaultLang           = "en"
)

// supportedLangs are the languages the upstream API publishes.
var supportedLangs = map[string]bool{"en": true, "ka": true}

// CubeFetcher fetches one upstream table as a canonical cube.
type CubeFetcher interface {
	FetchCube(ctx context.Context, tablePath string) (*cube.Cube, error)
}

// Gateway routes HTTP requests to the engine and ancillary stores.
type Gateway struct {
	engine   *engine.Engine
	fetcher  CubeFetcher
	registry *dataset.Registry

	water   *waterdata.Store
	monitor *health.Monitor
	metrics *metric.Metrics
	promh   http.Handler
	logger  *slog.Logger

	corsOrigins    []string
	maxSeries      int
	requestTimeout time.Duration
}

// Option configures the gateway.
type Option func(*Gateway)

// WithLogger sets the gateway's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics wires request metrics and mounts /metrics.
func WithMetrics(reg *metric.MetricsRegistry) Option {
	return func(g *Gateway) {
		if reg != nil {
			g.metrics = reg.CoreMetrics()
			g.promh = reg.Handler()
		}
	}
}

// WithWaterData mounts the rivers/lakes endpoints over the given store.
func WithWaterData(store *waterdata.Store) Option {
	return func(g *Gateway) { g.water = store }
}

// WithHealthMonitor mounts /api/health over the given monitor.
func WithHealthMonitor(m *health.Monitor) Option {
	return func(g *Gateway) { g.monitor = m }
}

// WithCORSOrigins enables CORS for the given origins ("*" allows any).
func WithCORSOrigins(origins []string) Option {
	return func(g *Gateway) { g.corsOrigins = origins }
}

// WithMaxSeries sets the default series-cardinality ceiling for datasets
// without their own.
func WithMaxSeries(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxSeries = n
		}
	}
}

// WithRequestTimeout bounds upstream fetch plus flatten per request.
func WithRequestTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.requestTimeout = d
		}
	}
}

// New creates a gateway over the flattening engine, upstream fetcher and
// dataset registry.
func New(e *engine.Engine, fetcher CubeFetcher, registry *dataset.Registry, opts ...Option) (*Gateway, error) {
	if e == nil || fetcher == nil || registry == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Gateway", "New",
			"engine, fetcher and registry are required")
	}

	g := &Gateway{
		engine:         e,
		fetcher:        fetcher,
		registry:       registry,
		logger:         slog.Default(),
		maxSeries:      defaultMaxSeries,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Handler builds the route table.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/datasets/{id}", g.instrument("datasets", g.handleDataset))
	mux.HandleFunc("GET /api/rivers", g.instrument("rivers", g.handleRivers))
	mux.HandleFunc("GET /api/lakes", g.instrument("lakes", g.handleLakes))
	mux.HandleFunc("GET /api/health", g.instrument("health", g.handleHealth))
	if g.promh != nil {
		mux.Handle("GET /metrics", g.promh)
	}

	return g.withCORS(mux)
}

// handleDataset flattens one dataset: registry lookup, upstream fetch,
// cardinality bound, engine flatten.
func (g *Gateway) handleDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	reqID := requestID(r)

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = defaultLang
	}
	if !supportedLangs[lang] {
		g.writeError(w, reqID, http.StatusBadRequest,
			fmt.Sprintf("unsupported language %q", lang), nil)
		return
	}

	ds, ok := g.registry.Lookup(id)
	if !ok || ds.TablePath == "" {
		g.writeError(w, reqID, http.StatusNotFound,
			fmt.Sprintf("unknown dataset %q", id), errors.ErrDatasetUnknown)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.requestTimeout)
	defer cancel()

	c, err := g.fetcher.FetchCube(ctx, ds.Table(lang))
	if g.monitor != nil {
		g.monitor.ReportError("upstream", err)
	}
	if err != nil {
		g.fail(w, reqID, "upstream fetch failed", err, "dataset", id)
		return
	}

	if err := g.boundCardinality(c, ds); err != nil {
		g.fail(w, reqID, "dataset exceeds series ceiling", err, "dataset", id)
		return
	}

	result, err := g.engine.Flatten(c, id, lang)
	if err != nil {
		g.fail(w, reqID, "flatten failed", err, "dataset", id)
		return
	}

	g.writeSuccess(w, reqID, result)
}

// boundCardinality refuses to materialize cartesian products beyond the
// dataset's ceiling (or the gateway default). The engine does not self-limit.
func (g *Gateway) boundCardinality(c *cube.Cube, ds *dataset.Config) error {
	limit := g.maxSeries
	if ds.MaxSeries > 0 {
		limit = ds.MaxSeries
	}

	timeDim := engine.TimeDimension(c)
	nonTime := make([]string, 0, len(c.DimensionIDs()))
	for _, dimID := range c.DimensionIDs() {
		if dimID != timeDim {
			nonTime = append(nonTime, dimID)
		}
	}

	if n := engine.Cardinality(c, nonTime); n > limit {
		return errors.WrapInvalid(errors.ErrInvalidData, "Gateway", "boundCardinality",
			fmt.Sprintf("%d series exceed limit %d", n, limit))
	}
	return nil
}

func (g *Gateway) handleRivers(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if g.water == nil {
		g.writeError(w, reqID, http.StatusNotFound, "water data not configured", nil)
		return
	}
	g.writeSuccess(w, reqID, g.water.Rivers())
}

func (g *Gateway) handleLakes(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if g.water == nil {
		g.writeError(w, reqID, http.StatusNotFound, "water data not configured", nil)
		return
	}
	g.writeSuccess(w, reqID, g.water.Lakes())
}

// handleHealth reports aggregated system health. Degraded still returns 200;
// load balancers should only evict on unhealthy.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if g.monitor == nil {
		g.writeSuccess(w, reqID, health.NewHealthy("pcaxis-server", "ok"))
		return
	}

	sys := g.monitor.System("pcaxis-server")
	if sys.IsUnhealthy() {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(requestIDHeader, reqID)
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Data: sys, RequestID: reqID})
		return
	}
	g.writeSuccess(w, reqID, sys)
}

// fail logs the full error internally and writes a sanitized envelope with
// the mapped status code.
func (g *Gateway) fail(w http.ResponseWriter, reqID, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err, "request_id", reqID)
	g.logger.Error(msg, attrs...)
	g.writeError(w, reqID, statusFor(err), health.Sanitize(err.Error()), err)
}

// statusFor maps error classes to HTTP statuses. A malformed upstream cube
// is the upstream's fault, not the caller's, hence 502.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, errors.ErrDatasetUnknown), errors.Is(err, errors.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidCube),
		errors.Is(err, errors.ErrDecodeFailed),
		errors.Is(err, errors.ErrUpstreamStatus):
		return http.StatusBadGateway
	case errors.IsTransient(err):
		return http.StatusServiceUnavailable
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
