package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

const requestIDHeader = "X-Request-ID"

// envelope is the uniform response wrapper.
type envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
	RequestID string     `json:"requestId"`
}

type errorBody struct {
	Message string `json:"message"`
	Class   string `json:"class,omitempty"`
}

// requestID takes the caller's X-Request-ID when present so IDs correlate
// across proxies, otherwise mints one.
func requestID(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (g *Gateway) writeSuccess(w http.ResponseWriter, reqID string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(requestIDHeader, reqID)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, RequestID: reqID})
}

func (g *Gateway) writeError(w http.ResponseWriter, reqID string, status int, message string, err error) {
	body := &errorBody{Message: message}
	if err != nil {
		body.Class = errors.Classify(err).String()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(requestIDHeader, reqID)
	writeJSON(w, status, envelope{Success: false, Error: body, RequestID: reqID})
}

// statusRecorder captures the written status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request logging and metrics.
func (g *Gateway) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		elapsed := time.Since(start)
		if g.metrics != nil {
			g.metrics.RecordRequest(route, strconv.Itoa(rec.status))
			g.metrics.RecordRequestDuration(route, elapsed)
		}
		g.logger.Debug("request served",
			"route", route, "path", r.URL.Path, "status", rec.status, "elapsed", elapsed)
	}
}

// withCORS applies the configured CORS policy and short-circuits preflight.
func (g *Gateway) withCORS(next http.Handler) http.Handler {
	if len(g.corsOrigins) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && g.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) originAllowed(origin string) bool {
	for _, allowed := range g.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
