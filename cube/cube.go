// Package cube defines the canonical in-memory representation of a
// multi-dimensional statistical table. A Cube is built once by the upstream
// fetch collaborator (pxclient) and is immutable for the duration of a
// flatten operation; the engine only reads it.
package cube

import (
	"fmt"
	"strings"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// cellKeySep separates value-ids inside a cell key. PX value codes are
// short alphanumeric strings, so the unit separator cannot collide.
const cellKeySep = "\x1f"

// Dimension is one axis of a cube: an identifier, its ordered value-ids and
// a map from value-id to human-readable label.
type Dimension struct {
	ID     string
	Label  string
	Values []string
	Labels map[string]string
}

// ValueLabel returns the label for a value-id, falling back to the raw
// value-id when no label is available.
func (d *Dimension) ValueLabel(valueID string) string {
	if label, ok := d.Labels[valueID]; ok && label != "" {
		return label
	}
	return valueID
}

// Cube is an immutable multi-dimensional statistical table.
type Cube struct {
	id    string
	title string
	dims  []Dimension
	byID  map[string]int
	cells map[string]float64
}

// Builder assembles a Cube. It is not safe for concurrent use; build the
// cube fully before handing it to the engine.
type Builder struct {
	cube *Cube
	err  error
}

// NewBuilder starts a cube with the given identity, title and ordered
// dimensions. The id participates in engine memoization keys; an empty id
// disables memoization for this cube.
func NewBuilder(id, title string, dims []Dimension) *Builder {
	c := &Cube{
		id:    id,
		title: title,
		dims:  make([]Dimension, len(dims)),
		byID:  make(map[string]int, len(dims)),
		cells: make(map[string]float64),
	}
	copy(c.dims, dims)

	b := &Builder{cube: c}
	for i, d := range c.dims {
		if d.ID == "" {
			b.err = errors.WrapInvalid(errors.ErrInvalidCube, "cube", "NewBuilder",
				fmt.Sprintf("dimension %d has empty id", i))
			return b
		}
		if _, dup := c.byID[d.ID]; dup {
			b.err = errors.WrapInvalid(errors.ErrInvalidCube, "cube", "NewBuilder",
				fmt.Sprintf("duplicate dimension id %q", d.ID))
			return b
		}
		c.byID[d.ID] = i
	}
	return b
}

// SetCell records a numeric cell for the given picks (one value-id per
// dimension). Cells never set remain absent, which the engine surfaces as
// null. Missing picks are rejected.
func (b *Builder) SetCell(picks map[string]string, value float64) *Builder {
	if b.err != nil {
		return b
	}
	key, err := b.cube.cellKey(picks)
	if err != nil {
		b.err = err
		return b
	}
	b.cube.cells[key] = value
	return b
}

// Build returns the finished cube or the first construction error.
func (b *Builder) Build() (*Cube, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cube, nil
}

// ID returns the cube identity used for memoization keys.
func (c *Cube) ID() string { return c.id }

// Title returns the cube's display title.
func (c *Cube) Title() string { return c.title }

// DimensionIDs returns the ordered dimension identifiers.
func (c *Cube) DimensionIDs() []string {
	ids := make([]string, len(c.dims))
	for i, d := range c.dims {
		ids[i] = d.ID
	}
	return ids
}

// Dimension returns the dimension with the given id.
func (c *Cube) Dimension(id string) (*Dimension, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.dims[i], true
}

// Cell returns the numeric value for the given picks (one value-id per
// dimension) and whether the cube has data for that exact combination.
// Absence is distinct from a stored zero.
func (c *Cube) Cell(picks map[string]string) (float64, bool) {
	key, err := c.cellKey(picks)
	if err != nil {
		return 0, false
	}
	v, ok := c.cells[key]
	return v, ok
}

// CellCount returns the number of populated cells.
func (c *Cube) CellCount() int { return len(c.cells) }

// cellKey builds the canonical cell key: value-ids joined in declared
// dimension order.
func (c *Cube) cellKey(picks map[string]string) (string, error) {
	parts := make([]string, len(c.dims))
	for i, d := range c.dims {
		v, ok := picks[d.ID]
		if !ok {
			return "", errors.WrapInvalid(errors.ErrDimensionNotFound, "cube", "cellKey",
				fmt.Sprintf("no pick for dimension %q", d.ID))
		}
		parts[i] = v
	}
	return strings.Join(parts, cellKeySep), nil
}
