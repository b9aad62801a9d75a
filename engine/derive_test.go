package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
)

func rowWith(cells map[string]*float64) *Row {
	return &Row{Year: 2020, Cells: cells}
}

func TestDeriveValue(t *testing.T) {
	tests := []struct {
		name string
		rule dataset.DerivationRule
		row  *Row
		prev *Row
		want *float64
	}{
		{
			name: "sum",
			rule: dataset.DerivationRule{Kind: dataset.FormulaSum, Operands: []string{"0", "1"}},
			row:  rowWith(map[string]*float64{"0": f64(10), "1": f64(20)}),
			want: f64(30),
		},
		{
			name: "sum treats missing operand as zero",
			rule: dataset.DerivationRule{Kind: dataset.FormulaSum, Operands: []string{"0", "1"}},
			row:  rowWith(map[string]*float64{"0": f64(10), "1": nil}),
			want: f64(10),
		},
		{
			name: "diff",
			rule: dataset.DerivationRule{Kind: dataset.FormulaDiff, Operands: []string{"0", "1"}},
			row:  rowWith(map[string]*float64{"0": f64(50), "1": f64(30)}),
			want: f64(20),
		},
		{
			name: "diff treats missing operand as zero",
			rule: dataset.DerivationRule{Kind: dataset.FormulaDiff, Operands: []string{"0", "1"}},
			row:  rowWith(map[string]*float64{"0": nil, "1": f64(30)}),
			want: f64(-30),
		},
		{
			name: "diff rejects wrong arity",
			rule: dataset.DerivationRule{Kind: dataset.FormulaDiff, Operands: []string{"0"}},
			row:  rowWith(map[string]*float64{"0": f64(1)}),
			want: nil,
		},
		{
			name: "growth",
			rule: dataset.DerivationRule{Kind: dataset.FormulaGrowth, Operands: []string{"0"}},
			row:  rowWith(map[string]*float64{"0": f64(110)}),
			prev: rowWith(map[string]*float64{"0": f64(100)}),
			want: f64(10),
		},
		{
			name: "growth without previous row",
			rule: dataset.DerivationRule{Kind: dataset.FormulaGrowth, Operands: []string{"0"}},
			row:  rowWith(map[string]*float64{"0": f64(110)}),
			want: nil,
		},
		{
			name: "growth with missing current value",
			rule: dataset.DerivationRule{Kind: dataset.FormulaGrowth, Operands: []string{"0"}},
			row:  rowWith(map[string]*float64{"0": nil}),
			prev: rowWith(map[string]*float64{"0": f64(100)}),
			want: nil,
		},
		{
			name: "growth with zero denominator",
			rule: dataset.DerivationRule{Kind: dataset.FormulaGrowth, Operands: []string{"0"}},
			row:  rowWith(map[string]*float64{"0": f64(5)}),
			prev: rowWith(map[string]*float64{"0": f64(0)}),
			want: nil,
		},
		{
			name: "unknown formula",
			rule: dataset.DerivationRule{Kind: dataset.FormulaKind("bogus"), Operands: []string{"0"}},
			row:  rowWith(map[string]*float64{"0": f64(1)}),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveValue(tt.rule, tt.row, tt.prev)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.InDelta(t, *tt.want, *got, 1e-9)
			}
		})
	}
}

func TestResolveOperands(t *testing.T) {
	series := []Series{
		{Key: "Births", Label: "Births"},
		{Key: "Deaths", Label: "Deaths"},
	}
	rules := []dataset.DerivationRule{
		{ID: "net", Kind: dataset.FormulaDiff, Operands: []string{"0", "1"}},
		{ID: "custom", Kind: dataset.FormulaSum, Operands: []string{"Births", "7"}},
	}

	resolved := resolveOperands(rules, series)

	// Ordinals land on the series keys; non-ordinal and out-of-range
	// operands stay as written.
	assert.Equal(t, []string{"Births", "Deaths"}, resolved[0].Operands)
	assert.Equal(t, []string{"Births", "7"}, resolved[1].Operands)

	// The source rules are untouched.
	assert.Equal(t, []string{"0", "1"}, rules[0].Operands)
}

func TestApplyDerivations(t *testing.T) {
	rules := []dataset.DerivationRule{
		{ID: "total", Kind: dataset.FormulaSum, Operands: []string{"0", "1"}},
		{ID: "net", Kind: dataset.FormulaDiff, Operands: []string{"0", "1"}},
	}
	row := rowWith(map[string]*float64{"0": f64(10), "1": f64(4)})

	applyDerivations(row, nil, rules, []string{"2", "3"})

	assert.Equal(t, f64(14), row.Cells["2"])
	assert.Equal(t, f64(6), row.Cells["3"])
}
