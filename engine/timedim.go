package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
)

// DefaultBaseYear is the engine-wide base for the positional fallback tier.
// Geostat cubes that carry no parseable time information start at 2017.
const DefaultBaseYear = 2017

// timeDimPattern matches dimension identifiers that denote the time axis,
// including the Georgian and Russian spellings used by geostat cubes.
var timeDimPattern = regexp.MustCompile(`(?i)(year|time|date|წელი|წლები|год|дата)`)

// yearInLabel extracts a 4-digit calendar year from labels such as
// "2015*" or "2015 წელი".
var yearInLabel = regexp.MustCompile(`(19|20|21)\d{2}`)

// YearTier identifies which normalization strategy produced a year.
// Unparseable time values degrade silently through the tiers; the chosen
// tier is surfaced in the result metadata for diagnostics.
type YearTier int

const (
	// TierLiteral means the raw value parsed directly as a plausible year.
	TierLiteral YearTier = iota + 1
	// TierLabel means the value's label parsed as a plausible year.
	TierLabel
	// TierOverride means a per-dataset static override supplied the year.
	TierOverride
	// TierPositional means the fixed base year plus position index was used.
	TierPositional
)

// String returns the tier name used in metadata and logs.
func (t YearTier) String() string {
	switch t {
	case TierLiteral:
		return "literal"
	case TierLabel:
		return "label"
	case TierOverride:
		return "override"
	case TierPositional:
		return "positional"
	default:
		return "unknown"
	}
}

// plausibleYear bounds what counts as a calendar year.
func plausibleYear(y int) bool {
	return y > 1900 && y < 3000
}

// resolveTime selects the time dimension by identifier heuristic (first
// declared dimension when nothing matches) and returns its non-blank raw
// values in declared order.
func resolveTime(c *cube.Cube) (string, []string) {
	ids := c.DimensionIDs()

	timeID := ids[0]
	for _, id := range ids {
		if timeDimPattern.MatchString(id) {
			timeID = id
			break
		}
	}

	dim, _ := c.Dimension(timeID)
	return timeID, nonBlankValues(dim)
}

// TimeDimension reports which dimension the engine will treat as the time
// axis. Callers use it to bound the cartesian product of the remaining
// dimensions before flattening.
func TimeDimension(c *cube.Cube) string {
	if c == nil || len(c.DimensionIDs()) == 0 {
		return ""
	}
	id, _ := resolveTime(c)
	return id
}

// nonBlankValues filters empty and whitespace-only value-ids, preserving
// declared order.
func nonBlankValues(dim *cube.Dimension) []string {
	values := make([]string, 0, len(dim.Values))
	for _, v := range dim.Values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		values = append(values, v)
	}
	return values
}

// normalizeYear converts a raw time value-id into a calendar year using the
// first strategy that succeeds: literal parse, label parse, per-dataset
// override, positional fallback. It never fails; the positional tier always
// produces a year.
func (e *Engine) normalizeYear(raw string, pos int, dim *cube.Dimension, ds *dataset.Config) (int, YearTier) {
	if y, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && plausibleYear(y) {
		return y, TierLiteral
	}

	if label, ok := dim.Labels[raw]; ok {
		if y, err := strconv.Atoi(strings.TrimSpace(label)); err == nil && plausibleYear(y) {
			return y, TierLabel
		}
		if m := yearInLabel.FindString(label); m != "" {
			if y, err := strconv.Atoi(m); err == nil && plausibleYear(y) {
				return y, TierLabel
			}
		}
	}

	if ds != nil {
		if y, ok := ds.TimeOverrides[raw]; ok && plausibleYear(y) {
			return y, TierOverride
		}
	}

	base := e.baseYear
	if ds != nil && ds.BaseYear != 0 {
		base = ds.BaseYear
	}
	return base + pos, TierPositional
}
