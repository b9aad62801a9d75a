package engine

import (
	"strconv"

	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
)

// resolveOperands maps rule operands written as combinator ordinals ("0",
// "1", ...) onto the strategy's output series keys, so a rule addresses the
// same series whether the strategy emits numeric or label keys. Non-ordinal
// and out-of-range operands pass through untouched.
func resolveOperands(rules []dataset.DerivationRule, series []Series) []dataset.DerivationRule {
	resolved := make([]dataset.DerivationRule, len(rules))
	for i, rule := range rules {
		operands := make([]string, len(rule.Operands))
		for j, op := range rule.Operands {
			if n, err := strconv.Atoi(op); err == nil && n >= 0 && n < len(series) {
				operands[j] = series[n].Key
			} else {
				operands[j] = op
			}
		}
		rule.Operands = operands
		resolved[i] = rule
	}
	return resolved
}

// deriveValue evaluates one derivation rule against a row's already-resolved
// series values and, for growth rules, the previous included row.
//
// Sum and diff treat missing operands as zero: a partially-missing cube
// still produces a best-effort derived value. Growth yields nil on a
// missing current value, a missing previous row/value, or a zero
// denominator. The asymmetry is intentional; see the dataset package doc.
func deriveValue(rule dataset.DerivationRule, row, prev *Row) *float64 {
	switch rule.Kind {
	case dataset.FormulaSum:
		total := 0.0
		for _, op := range rule.Operands {
			if v := row.Cells[op]; v != nil {
				total += *v
			}
		}
		return &total

	case dataset.FormulaDiff:
		if len(rule.Operands) != 2 {
			return nil
		}
		a, b := 0.0, 0.0
		if v := row.Cells[rule.Operands[0]]; v != nil {
			a = *v
		}
		if v := row.Cells[rule.Operands[1]]; v != nil {
			b = *v
		}
		d := a - b
		return &d

	case dataset.FormulaGrowth:
		if len(rule.Operands) != 1 || prev == nil {
			return nil
		}
		cur := row.Cells[rule.Operands[0]]
		prevVal := prev.Cells[rule.Operands[0]]
		if cur == nil || prevVal == nil || *prevVal == 0 {
			return nil
		}
		g := ((*cur / *prevVal) * 100) - 100
		return &g
	}

	return nil
}

// applyDerivations appends every rule's value to the row in declaration
// order under the pre-assigned derived keys. Derived keys always follow all
// base series keys, so adding a rule never perturbs base series indexes.
func applyDerivations(row, prev *Row, rules []dataset.DerivationRule, derivedKeys []string) {
	for i, rule := range rules {
		row.Cells[derivedKeys[i]] = deriveValue(rule, row, prev)
	}
}
