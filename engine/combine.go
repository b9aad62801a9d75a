package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// labelSep joins per-dimension labels into a series label.
const labelSep = " - "

// Series is one flattened output column: a tuple of dimension-value picks
// over the non-time dimensions, a stable numeric-string key assigned by
// enumeration order, and a human label.
type Series struct {
	Key   string
	Picks map[string]string
	Label string
}

// Combine computes the full cartesian product of value-ids across the given
// dimensions in declared order (first dimension varies slowest). Key
// assignment is deterministic for a fixed cube shape: re-flattening the same
// cube yields identical keys and ordering regardless of cell values.
//
// The product is materialized eagerly; callers bound expected cardinality
// per dataset before invoking (see Cardinality).
func Combine(c *cube.Cube, dimIDs []string) ([]Series, error) {
	if len(dimIDs) == 0 {
		return nil, nil
	}

	dims := make([]*cube.Dimension, len(dimIDs))
	total := 1
	for i, id := range dimIDs {
		d, ok := c.Dimension(id)
		if !ok {
			return nil, errors.WrapInvalid(errors.ErrDimensionNotFound, "engine", "Combine",
				fmt.Sprintf("dimension %q", id))
		}
		if len(d.Values) == 0 {
			return nil, nil
		}
		dims[i] = d
		total *= len(d.Values)
	}

	series := make([]Series, 0, total)
	indices := make([]int, len(dims))

	for n := 0; n < total; n++ {
		picks := make(map[string]string, len(dims))
		parts := make([]string, 0, len(dims))
		for i, d := range dims {
			v := d.Values[indices[i]]
			picks[d.ID] = v
			parts = append(parts, d.ValueLabel(v))
		}
		series = append(series, Series{
			Key:   strconv.Itoa(n),
			Picks: picks,
			Label: strings.Join(parts, labelSep),
		})

		// Odometer increment, last dimension fastest.
		for i := len(indices) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[i].Values) {
				break
			}
			indices[i] = 0
		}
	}

	return series, nil
}

// Cardinality returns the size of the cartesian product over the given
// dimensions, or 0 if any dimension is missing or empty. Callers use this
// to bound work before flattening untrusted configuration.
func Cardinality(c *cube.Cube, dimIDs []string) int {
	total := 1
	for _, id := range dimIDs {
		d, ok := c.Dimension(id)
		if !ok || len(d.Values) == 0 {
			return 0
		}
		total *= len(d.Values)
	}
	return total
}

// combine memoizes Combine results keyed by (cube identity, dimension list).
// Cubes without an identity skip the cache. Entries are idempotent, so a
// race computing the same entry twice only wastes work.
func (e *Engine) combine(c *cube.Cube, dimIDs []string) ([]Series, error) {
	if e.series == nil || c.ID() == "" {
		return Combine(c, dimIDs)
	}

	key := c.ID() + "\x1f" + strings.Join(dimIDs, ",")
	if cached, ok := e.series.Get(key); ok {
		return cached, nil
	}

	series, err := Combine(c, dimIDs)
	if err != nil {
		return nil, err
	}
	_, _ = e.series.Set(key, series)
	return series, nil
}
