package pxclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
	"github.com/nikolozi2001/pcaxis-server-sub000/metric"
	"github.com/nikolozi2001/pcaxis-server-sub000/pkg/retry"
)

const (
	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps upstream response bodies. The largest geostat
	// tables are low single-digit megabytes.
	maxResponseBytes = 64 << 20
)

// Client talks to one PX-Web API deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     *slog.Logger
	metrics    *metric.Metrics
	userAgent  string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry overrides the retry/backoff policy.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires upstream fetch outcomes into the metrics registry.
func WithMetrics(reg *metric.MetricsRegistry) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = reg.CoreMetrics()
		}
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a PX-Web client for the given base URL, e.g.
// "https://pc-axis.geostat.ge/PXWeb/api/v1".
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pxclient", "New",
			"base URL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryCfg:   retry.DefaultConfig(),
		logger:     slog.Default(),
		userAgent:  "pcaxis-server",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Metadata fetches the table description (variables, value codes, labels)
// for a table path such as "ka/database/Demography/01/demo-birth.px".
func (c *Client) Metadata(ctx context.Context, tablePath string) (*TableMeta, error) {
	body, err := c.get(ctx, c.tableURL(tablePath))
	if err != nil {
		return nil, err
	}

	payload, err := unwrapEnvelope(body)
	if err != nil {
		return nil, err
	}

	var meta TableMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "Metadata",
			"metadata decode: "+err.Error())
	}
	if len(meta.Variables) == 0 {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "Metadata",
			"metadata has no variables")
	}
	return &meta, nil
}

// Data fetches every cell of the table described by meta.
func (c *Client) Data(ctx context.Context, tablePath string, meta *TableMeta) (*TableData, error) {
	query := dataQuery{
		Query:    make([]querySelection, 0, len(meta.Variables)),
		Response: queryResponse{Format: "json"},
	}
	for _, v := range meta.Variables {
		query.Query = append(query.Query, querySelection{
			Code:      v.Code,
			Selection: selectionRange{Filter: "all", Values: []string{"*"}},
		})
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "Data",
			"query encode: "+err.Error())
	}

	body, err := c.post(ctx, c.tableURL(tablePath), queryJSON)
	if err != nil {
		return nil, err
	}

	payload, err := unwrapEnvelope(body)
	if err != nil {
		return nil, err
	}

	var data TableData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "Data",
			"data decode: "+err.Error())
	}
	return &data, nil
}

// FetchCube fetches metadata and data for a table and assembles the
// canonical cube. The cube's identity is the table path, which keys the
// engine's combinator memoization.
func (c *Client) FetchCube(ctx context.Context, tablePath string) (*cube.Cube, error) {
	meta, err := c.Metadata(ctx, tablePath)
	if err != nil {
		return nil, err
	}

	data, err := c.Data(ctx, tablePath, meta)
	if err != nil {
		return nil, err
	}
	if len(data.Data) == 0 {
		return nil, errors.WrapInvalid(errors.ErrNoData, "pxclient", "FetchCube",
			"table "+tablePath+" has no cells")
	}

	return buildCube(tablePath, meta, data)
}

// buildCube converts wire metadata and cells into the engine's cube model.
// Sentinel-valued cells stay absent.
func buildCube(id string, meta *TableMeta, data *TableData) (*cube.Cube, error) {
	dims := make([]cube.Dimension, len(meta.Variables))
	for i, v := range meta.Variables {
		labels := make(map[string]string, len(v.Values))
		for j, code := range v.Values {
			if j < len(v.ValueTexts) {
				labels[code] = v.ValueTexts[j]
			}
		}
		dims[i] = cube.Dimension{
			ID:     v.Code,
			Label:  v.Text,
			Values: append([]string(nil), v.Values...),
			Labels: labels,
		}
	}

	b := cube.NewBuilder(id, meta.Title, dims)
	for _, cell := range data.Data {
		if len(cell.Key) != len(dims) || len(cell.Values) == 0 {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "buildCube",
				fmt.Sprintf("cell key arity %d does not match %d variables", len(cell.Key), len(dims)))
		}

		v, ok, err := parseCellValue(cell.Values[0])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		picks := make(map[string]string, len(dims))
		for i, code := range cell.Key {
			picks[dims[i].ID] = code
		}
		b.SetCell(picks, v)
	}

	return b.Build()
}

func (c *Client) tableURL(tablePath string) string {
	return c.baseURL + "/" + strings.TrimLeft(tablePath, "/")
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

// do executes one HTTP exchange with retry. Network failures and 5xx/429
// responses retry with backoff; other non-2xx statuses fail immediately.
func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	start := time.Now()

	result, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, retry.NonRetryable(errors.WrapInvalid(errors.ErrInvalidConfig,
				"pxclient", "do", "request build: "+err.Error()))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.WrapTransient(errors.ErrUpstreamUnavailable, "pxclient", "do",
				method+" "+url+": "+err.Error())
		}
		defer func() { _ = resp.Body.Close() }()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, errors.WrapTransient(errors.ErrUpstreamUnavailable, "pxclient", "do",
				"response read: "+err.Error())
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return payload, nil
		}

		statusErr := errors.WrapTransient(errors.ErrUpstreamStatus, "pxclient", "do",
			fmt.Sprintf("%s %s returned %d", method, url, resp.StatusCode))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, statusErr
		}
		return nil, retry.NonRetryable(statusErr)
	})

	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordUpstream(outcome, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("upstream request failed", "method", method, "url", url, "error", err)
		return nil, err
	}
	return result, nil
}
