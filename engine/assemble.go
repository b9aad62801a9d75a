package engine

import (
	"strconv"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
)

// assemble iterates time values in declared order, fills one row per time
// value through cell lookup, applies derivation rules, and produces the
// final result with its metadata block.
//
// Rows whose base series are all null are dropped: some cubes declare more
// time periods than they have data for. The year range is computed over
// included rows only, and growth derivations see the previous *included*
// row as their predecessor.
func (e *Engine) assemble(
	c *cube.Cube, datasetID, lang string, ds *dataset.Config,
	timeDimID string, timeValues []string, series []Series,
	indexedKeys, hasCategories bool,
) *Result {
	var rules []dataset.DerivationRule
	if ds != nil {
		rules = resolveOperands(ds.Rules, series)
	}

	// Derived keys follow all base keys in rule-declaration order, so
	// adding a rule never changes a base series' numeric key.
	derivedKeys := make([]string, len(rules))
	for i, rule := range rules {
		if indexedKeys {
			derivedKeys[i] = strconv.Itoa(len(series) + i)
		} else {
			derivedKeys[i] = rule.Label(lang)
		}
	}

	order := make([]string, 0, len(series)+len(derivedKeys))
	for _, s := range series {
		order = append(order, s.Key)
	}
	order = append(order, derivedKeys...)

	timeDim, _ := c.Dimension(timeDimID)

	rows := make([]Row, 0, len(timeValues))
	yearMapping := make([]IndexLabel, 0, len(timeValues))
	var prev *Row
	var yearRange *YearRange

	for pos, tv := range timeValues {
		cells := make(map[string]*float64, len(order))
		anyData := false
		for i := range series {
			v := lookupCell(c, timeDimID, tv, series[i].Picks)
			cells[series[i].Key] = v
			if v != nil {
				anyData = true
			}
		}
		if !anyData {
			continue
		}

		year, tier := e.normalizeYear(tv, pos, timeDim, ds)
		if tier == TierPositional {
			e.logger.Debug("time value fell back to positional year",
				"dataset", datasetID, "raw", tv, "year", year)
		}

		row := Row{Year: year, Cells: cells, order: order}
		applyDerivations(&row, prev, rules, derivedKeys)

		rows = append(rows, row)
		prev = &rows[len(rows)-1]

		yearMapping = append(yearMapping, IndexLabel{
			Index: strconv.Itoa(len(rows) - 1),
			Label: strconv.Itoa(year),
			Tier:  tier.String(),
		})

		if yearRange == nil {
			yearRange = &YearRange{Start: year, End: year}
		} else {
			if year < yearRange.Start {
				yearRange.Start = year
			}
			if year > yearRange.End {
				yearRange.End = year
			}
		}
	}

	categoryMapping := make([]IndexLabel, 0, len(order))
	for _, s := range series {
		categoryMapping = append(categoryMapping, IndexLabel{Index: s.Key, Label: s.Label})
	}
	for i, rule := range rules {
		categoryMapping = append(categoryMapping, IndexLabel{Index: derivedKeys[i], Label: rule.Label(lang)})
	}

	return &Result{
		Title:      c.Title(),
		DatasetID:  datasetID,
		Dimensions: c.DimensionIDs(),
		Categories: order,
		Rows:       rows,
		Meta: Meta{
			RowCount:        len(rows),
			HasCategories:   hasCategories,
			YearRange:       yearRange,
			SeriesCount:     len(order),
			YearMapping:     yearMapping,
			CategoryMapping: categoryMapping,
		},
	}
}
