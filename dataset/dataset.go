// Package dataset holds the declarative per-dataset configuration consumed
// by the flattening engine: processor overrides, series-key policy, time
// value overrides and derivation rules. New datasets become configuration
// entries here, not new code paths.
//
// Known asymmetry, kept deliberately because changing it would alter
// already-published figures: sum/diff rules treat missing operands as zero,
// while growth rules yield null on a missing operand. Flagged for product
// review rather than silently "fixed".
package dataset

import (
	"fmt"
	"strings"
)

// FormulaKind identifies a derivation rule's formula.
type FormulaKind string

const (
	// FormulaSum adds operand series values; missing operands count as zero.
	FormulaSum FormulaKind = "sum"
	// FormulaDiff subtracts the second operand from the first; missing
	// operands count as zero.
	FormulaDiff FormulaKind = "diff"
	// FormulaGrowth computes percent growth of the single operand over the
	// previous row: ((current/previous)*100)-100. Missing or zero previous
	// values yield null.
	FormulaGrowth FormulaKind = "growth"
)

// Valid reports whether the formula kind is one the engine implements.
func (k FormulaKind) Valid() bool {
	switch k {
	case FormulaSum, FormulaDiff, FormulaGrowth:
		return true
	}
	return false
}

// DerivationRule specifies one synthetic series computed from other series'
// values within a row.
type DerivationRule struct {
	ID       string            `yaml:"id" json:"id"`
	Labels   map[string]string `yaml:"labels" json:"labels"` // language tag -> label
	Kind     FormulaKind       `yaml:"kind" json:"kind"`
	Operands []string          `yaml:"operands" json:"operands"` // combinator ordinals, or literal series keys
}

// Label returns the rule's label for the given language, falling back to
// English and finally to the rule id.
func (r DerivationRule) Label(lang string) string {
	if label, ok := r.Labels[lang]; ok && label != "" {
		return label
	}
	if label, ok := r.Labels["en"]; ok && label != "" {
		return label
	}
	return r.ID
}

// Config is the full per-dataset configuration entry.
type Config struct {
	ID string `yaml:"id" json:"id"`

	// TablePath is the upstream PX-Web table path with an optional {lang}
	// placeholder, e.g. "{lang}/database/demography/births-deaths.px".
	// Datasets without a table path cannot be fetched from upstream.
	TablePath string `yaml:"table_path,omitempty" json:"table_path,omitempty"`

	// Processor names a registered dataset-specific processor that bypasses
	// the generic strategies entirely. Empty means generic routing.
	Processor string `yaml:"processor,omitempty" json:"processor,omitempty"`

	// IndexedKeys forces numeric-index series keys even for cubes with a
	// single categorical dimension, for consumers that must not break when
	// a label's exact text changes.
	IndexedKeys bool `yaml:"indexed_keys,omitempty" json:"indexed_keys,omitempty"`

	// TimeOverrides maps opaque raw time value-ids to calendar years for
	// cubes whose time axis carries no usable labels.
	TimeOverrides map[string]int `yaml:"time_overrides,omitempty" json:"time_overrides,omitempty"`

	// BaseYear overrides the engine-wide positional fallback base year.
	BaseYear int `yaml:"base_year,omitempty" json:"base_year,omitempty"`

	// MaxSeries documents the expected cardinality ceiling of the cartesian
	// product for this dataset. The engine does not self-limit; callers
	// validate against this before invoking it on untrusted configuration.
	MaxSeries int `yaml:"max_series,omitempty" json:"max_series,omitempty"`

	Rules []DerivationRule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Table resolves the upstream table path for a language. Empty when the
// dataset has no upstream table.
func (c *Config) Table(lang string) string {
	return strings.ReplaceAll(c.TablePath, "{lang}", lang)
}

// validate checks a single entry; called by Registry.Validate.
func (c *Config) validate() []error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, fmt.Errorf("dataset id cannot be empty"))
		return errs
	}
	for raw, year := range c.TimeOverrides {
		if year <= 1900 || year >= 3000 {
			errs = append(errs, fmt.Errorf("dataset %s: time override %q maps to implausible year %d", c.ID, raw, year))
		}
	}
	if c.BaseYear != 0 && (c.BaseYear <= 1900 || c.BaseYear >= 3000) {
		errs = append(errs, fmt.Errorf("dataset %s: base year %d is implausible", c.ID, c.BaseYear))
	}
	if c.MaxSeries < 0 {
		errs = append(errs, fmt.Errorf("dataset %s: max_series cannot be negative", c.ID))
	}
	for i, rule := range c.Rules {
		if rule.ID == "" {
			errs = append(errs, fmt.Errorf("dataset %s: rule %d has empty id", c.ID, i))
		}
		if !rule.Kind.Valid() {
			errs = append(errs, fmt.Errorf("dataset %s: rule %s has unknown kind %q", c.ID, rule.ID, rule.Kind))
			continue
		}
		switch rule.Kind {
		case FormulaGrowth:
			if len(rule.Operands) != 1 {
				errs = append(errs, fmt.Errorf("dataset %s: growth rule %s needs exactly one operand", c.ID, rule.ID))
			}
		case FormulaDiff:
			if len(rule.Operands) != 2 {
				errs = append(errs, fmt.Errorf("dataset %s: diff rule %s needs exactly two operands", c.ID, rule.ID))
			}
		case FormulaSum:
			if len(rule.Operands) < 2 {
				errs = append(errs, fmt.Errorf("dataset %s: sum rule %s needs at least two operands", c.ID, rule.ID))
			}
		}
	}
	return errs
}
