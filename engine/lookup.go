package engine

import (
	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
)

// lookupCell resolves the numeric cell for one time value and one series'
// dimension-value tuple. Returns nil when the cube has no data for that
// exact combination; a stored zero is data and comes back as &0.
func lookupCell(c *cube.Cube, timeDimID, timeValue string, picks map[string]string) *float64 {
	full := make(map[string]string, len(picks)+1)
	for dim, v := range picks {
		full[dim] = v
	}
	full[timeDimID] = timeValue

	if v, ok := c.Cell(full); ok {
		return &v
	}
	return nil
}
