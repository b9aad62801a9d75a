package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
	"github.com/nikolozi2001/pcaxis-server-sub000/engine"
	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
	"github.com/nikolozi2001/pcaxis-server-sub000/health"
	"github.com/nikolozi2001/pcaxis-server-sub000/waterdata"
)

// stubFetcher returns a fixed cube or error and records the requested path.
type stubFetcher struct {
	cube *cube.Cube
	err  error
	path string
}

func (f *stubFetcher) FetchCube(_ context.Context, tablePath string) (*cube.Cube, error) {
	f.path = tablePath
	if f.err != nil {
		return nil, f.err
	}
	return f.cube, nil
}

func demoCube(t *testing.T) *cube.Cube {
	t.Helper()
	c, err := cube.NewBuilder("demo.px", "Demo indicator", []cube.Dimension{
		{ID: "Year", Values: []string{"2020", "2021"}},
		{ID: "Gender", Values: []string{"m", "f"},
			Labels: map[string]string{"m": "Male", "f": "Female"}},
	}).
		SetCell(map[string]string{"Year": "2020", "Gender": "m"}, 100).
		SetCell(map[string]string{"Year": "2020", "Gender": "f"}, 110).
		SetCell(map[string]string{"Year": "2021", "Gender": "m"}, 102).
		SetCell(map[string]string{"Year": "2021", "Gender": "f"}, 112).
		Build()
	require.NoError(t, err)
	return c
}

func testRegistry(t *testing.T) *dataset.Registry {
	t.Helper()
	reg := dataset.NewRegistry()
	require.NoError(t, reg.Register(&dataset.Config{
		ID:        "population",
		TablePath: "{lang}/database/demo.px",
		MaxSeries: 8,
	}))
	require.NoError(t, reg.Register(&dataset.Config{
		ID: "no-table",
	}))
	return reg
}

func newGateway(t *testing.T, fetcher CubeFetcher, opts ...Option) *Gateway {
	t.Helper()
	reg := testRegistry(t)
	e, err := engine.New(reg)
	require.NoError(t, err)
	g, err := New(e, fetcher, reg, opts...)
	require.NoError(t, err)
	return g
}

func doRequest(t *testing.T, g *Gateway, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHandleDataset(t *testing.T) {
	fetcher := &stubFetcher{cube: demoCube(t)}
	g := newGateway(t, fetcher)

	rec, env := doRequest(t, g, http.MethodGet, "/api/datasets/population?lang=ka")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rec.Header().Get("X-Request-ID"))

	// The language placeholder resolves in the fetched path.
	assert.Equal(t, "ka/database/demo.px", fetcher.path)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var result struct {
		Title      string           `json:"title"`
		Categories []string         `json:"categories"`
		Rows       []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "Demo indicator", result.Title)
	assert.Equal(t, []string{"Male", "Female"}, result.Categories)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, float64(2020), result.Rows[0]["year"])
	assert.Equal(t, float64(100), result.Rows[0]["Male"])
}

func TestHandleDataset_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		fetchErr   error
		wantStatus int
	}{
		{
			name:       "unknown dataset",
			target:     "/api/datasets/nope",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "dataset without table path",
			target:     "/api/datasets/no-table",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unsupported language",
			target:     "/api/datasets/population?lang=fr",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "upstream unavailable",
			target:     "/api/datasets/population",
			fetchErr:   errors.WrapTransient(errors.ErrUpstreamUnavailable, "pxclient", "do", "dial"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "upstream garbage",
			target:     "/api/datasets/population",
			fetchErr:   errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "Metadata", "decode"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "invalid cube",
			target:     "/api/datasets/population",
			fetchErr:   errors.WrapInvalid(errors.ErrInvalidCube, "cube", "NewBuilder", "empty id"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "empty table",
			target:     "/api/datasets/population",
			fetchErr:   errors.WrapInvalid(errors.ErrNoData, "pxclient", "FetchCube", "no cells"),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, &stubFetcher{cube: demoCube(t), err: tt.fetchErr})

			rec, env := doRequest(t, g, http.MethodGet, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestHandleDataset_SeriesCeiling(t *testing.T) {
	reg := dataset.NewRegistry()
	require.NoError(t, reg.Register(&dataset.Config{
		ID:        "population",
		TablePath: "{lang}/database/demo.px",
		MaxSeries: 1,
	}))
	e, err := engine.New(reg)
	require.NoError(t, err)
	g, err := New(e, &stubFetcher{cube: demoCube(t)}, reg)
	require.NoError(t, err)

	rec, env := doRequest(t, g, http.MethodGet, "/api/datasets/population")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestHandleDataset_ErrorMessageSanitized(t *testing.T) {
	fetchErr := errors.WrapTransient(errors.ErrUpstreamUnavailable, "pxclient", "do",
		"GET https://pc-axis.geostat.ge/PXWeb/api/v1/en/demo.px: connection refused")
	g := newGateway(t, &stubFetcher{err: fetchErr})

	_, env := doRequest(t, g, http.MethodGet, "/api/datasets/population")
	require.NotNil(t, env.Error)
	assert.NotContains(t, env.Error.Message, "geostat.ge")
	assert.Contains(t, env.Error.Message, "[URL]")
}

func TestWaterEndpoints(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		g := newGateway(t, &stubFetcher{cube: demoCube(t)})
		rec, _ := doRequest(t, g, http.MethodGet, "/api/rivers")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("configured", func(t *testing.T) {
		g := newGateway(t, &stubFetcher{cube: demoCube(t)},
			WithWaterData(waterdata.NewStore(nil)))
		rec, env := doRequest(t, g, http.MethodGet, "/api/lakes")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
	})
}

func TestHandleHealth(t *testing.T) {
	monitor := health.NewMonitor()
	g := newGateway(t, &stubFetcher{cube: demoCube(t)}, WithHealthMonitor(monitor))

	rec, env := doRequest(t, g, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	monitor.Update("upstream", health.NewUnhealthy("upstream", "down"))
	rec, _ = doRequest(t, g, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthMonitorTracksUpstream(t *testing.T) {
	monitor := health.NewMonitor()
	fetchErr := errors.WrapTransient(errors.ErrUpstreamUnavailable, "pxclient", "do", "dial")
	g := newGateway(t, &stubFetcher{err: fetchErr}, WithHealthMonitor(monitor))

	doRequest(t, g, http.MethodGet, "/api/datasets/population")

	status, ok := monitor.Get("upstream")
	require.True(t, ok)
	assert.True(t, status.IsDegraded())
}

func TestCORS(t *testing.T) {
	g := newGateway(t, &stubFetcher{cube: demoCube(t)},
		WithCORSOrigins([]string{"https://app.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/datasets/population", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	// Disallowed origins get no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/api/datasets/population", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPassthrough(t *testing.T) {
	g := newGateway(t, &stubFetcher{cube: demoCube(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/population", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}
