package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
	"github.com/nikolozi2001/pcaxis-server-sub000/metric"
	"github.com/nikolozi2001/pcaxis-server-sub000/pkg/cache"
)

// defaultSeriesCacheSize bounds the combinator memoization cache.
const defaultSeriesCacheSize = 128

// Processor is a dataset-specific flattening override. It bypasses the
// generic strategies entirely but may call back into the engine's
// combinator, lookup and derivation machinery.
type Processor func(e *Engine, c *cube.Cube, ds *dataset.Config, lang string) (*Result, error)

// Engine flattens cubes into chart-ready tabular results. It holds no
// mutable state besides the combinator memoization cache and is safe for
// concurrent use.
type Engine struct {
	registry   *dataset.Registry
	processors map[string]Processor
	series     cache.Cache[[]Series]
	baseYear   int
	logger     *slog.Logger
	metrics    *metric.Metrics

	cacheSize   int
	metricsReg  *metric.MetricsRegistry
	cachePrefix string
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics wires the engine and its memoization cache into a metrics
// registry.
func WithMetrics(reg *metric.MetricsRegistry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.metricsReg = reg
			e.metrics = reg.CoreMetrics()
		}
	}
}

// WithBaseYear overrides the engine-wide positional fallback base year.
func WithBaseYear(year int) Option {
	return func(e *Engine) {
		if plausibleYear(year) {
			e.baseYear = year
		}
	}
}

// WithSeriesCacheSize bounds the combinator memoization cache.
func WithSeriesCacheSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.cacheSize = size
		}
	}
}

// New creates a flattening engine over the given dataset registry. The
// built-in "lead-time" processor is pre-registered.
func New(registry *dataset.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:    registry,
		processors:  make(map[string]Processor),
		baseYear:    DefaultBaseYear,
		logger:      slog.Default(),
		cacheSize:   defaultSeriesCacheSize,
		cachePrefix: "series",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	cacheOpts := []cache.Option[[]Series]{}
	if e.metricsReg != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics[[]Series](e.metricsReg, e.cachePrefix))
	}
	series, err := cache.NewLRU(e.cacheSize, cacheOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "Engine", "New", "series cache creation")
	}
	e.series = series

	if err := e.RegisterProcessor("lead-time", leadTimeProcessor); err != nil {
		return nil, err
	}

	return e, nil
}

// RegisterProcessor adds a named dataset-specific processor.
func (e *Engine) RegisterProcessor(name string, p Processor) error {
	if name == "" || p == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Engine", "RegisterProcessor",
			"processor name and function are required")
	}
	if _, exists := e.processors[name]; exists {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Engine", "RegisterProcessor",
			fmt.Sprintf("processor %q already registered", name))
	}
	e.processors[name] = p
	return nil
}

// Flatten converts a cube into its tabular form for one dataset and
// language. A configured dimension missing from the cube is a fatal
// invalid-cube error; all other anomalies (missing cells, unparseable time
// values, missing derivation operands) degrade to nulls or fallbacks.
func (e *Engine) Flatten(c *cube.Cube, datasetID, lang string) (*Result, error) {
	start := time.Now()

	result, err := e.flatten(c, datasetID, lang)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordFlattenError(datasetID, errors.Classify(err).String())
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordFlatten(datasetID, len(result.Rows), time.Since(start))
	}
	return result, nil
}

func (e *Engine) flatten(c *cube.Cube, datasetID, lang string) (*Result, error) {
	if c == nil || len(c.DimensionIDs()) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCube, "Engine", "Flatten",
			"cube has no dimensions")
	}

	var ds *dataset.Config
	if e.registry != nil {
		ds, _ = e.registry.Lookup(datasetID)
	}

	// Dataset-specific processors bypass generic routing entirely.
	if ds != nil && ds.Processor != "" {
		if p, ok := e.processors[ds.Processor]; ok {
			return p(e, c, ds, lang)
		}
		e.logger.Warn("configured processor not registered, using generic routing",
			"dataset", datasetID, "processor", ds.Processor)
	}

	timeDimID, timeValues := resolveTime(c)

	nonTime := make([]string, 0, len(c.DimensionIDs())-1)
	for _, id := range c.DimensionIDs() {
		if id != timeDimID {
			nonTime = append(nonTime, id)
		}
	}

	switch {
	case len(nonTime) == 0:
		return e.flattenSingle(c, datasetID, lang, ds, timeDimID, timeValues)
	case len(nonTime) == 1 && (ds == nil || !ds.IndexedKeys):
		return e.flattenTwoDim(c, datasetID, lang, ds, timeDimID, timeValues, nonTime)
	default:
		return e.flattenMulti(c, datasetID, lang, ds, timeDimID, timeValues, nonTime)
	}
}

// flattenSingle handles cubes whose only dimension is time: one synthetic
// "value" series.
func (e *Engine) flattenSingle(
	c *cube.Cube, datasetID, lang string, ds *dataset.Config,
	timeDimID string, timeValues []string,
) (*Result, error) {
	series := []Series{{Key: "value", Picks: map[string]string{}, Label: c.Title()}}
	return e.assemble(c, datasetID, lang, ds, timeDimID, timeValues, series, false, false), nil
}

// flattenTwoDim handles the common one-categorical-dimension case: series
// are keyed by human label rather than numeric index, the one place output
// keys are labels.
func (e *Engine) flattenTwoDim(
	c *cube.Cube, datasetID, lang string, ds *dataset.Config,
	timeDimID string, timeValues, nonTime []string,
) (*Result, error) {
	combined, err := e.combine(c, nonTime)
	if err != nil {
		return nil, err
	}

	// Re-key a copy by label; the combined slice may be shared through the
	// memoization cache. Colliding labels keep the raw value-id as a suffix
	// so row completeness is preserved.
	series := make([]Series, len(combined))
	copy(series, combined)
	seen := make(map[string]bool, len(series))
	dimID := nonTime[0]
	for i := range series {
		key := series[i].Label
		if seen[key] {
			key = fmt.Sprintf("%s (%s)", series[i].Label, series[i].Picks[dimID])
		}
		seen[key] = true
		series[i].Key = key
	}

	return e.assemble(c, datasetID, lang, ds, timeDimID, timeValues, series, false, true), nil
}

// flattenMulti is the general strategy: full cartesian product with stable
// numeric-index series keys.
func (e *Engine) flattenMulti(
	c *cube.Cube, datasetID, lang string, ds *dataset.Config,
	timeDimID string, timeValues, nonTime []string,
) (*Result, error) {
	series, err := e.combine(c, nonTime)
	if err != nil {
		return nil, err
	}
	return e.assemble(c, datasetID, lang, ds, timeDimID, timeValues, series, true, true), nil
}

// leadTimeProcessor flattens cubes that declare time as their last
// dimension under an opaque identifier the name heuristic cannot find.
// Always uses numeric-index series keys.
func leadTimeProcessor(e *Engine, c *cube.Cube, ds *dataset.Config, lang string) (*Result, error) {
	ids := c.DimensionIDs()
	if len(ids) < 2 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCube, "Engine", "leadTimeProcessor",
			"cube needs a trailing time dimension plus at least one category")
	}

	timeDimID := ids[len(ids)-1]
	nonTime := ids[:len(ids)-1]

	timeDim, _ := c.Dimension(timeDimID)
	timeValues := nonBlankValues(timeDim)

	series, err := e.combine(c, nonTime)
	if err != nil {
		return nil, err
	}
	return e.assemble(c, ds.ID, lang, ds, timeDimID, timeValues, series, true, true), nil
}
