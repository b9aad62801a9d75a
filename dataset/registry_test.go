package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.NoError(t, r.Validate())
	assert.Greater(t, r.Len(), 0)

	cfg, ok := r.Lookup("births-deaths")
	require.True(t, ok)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, FormulaDiff, cfg.Rules[0].Kind)
	assert.Equal(t, FormulaGrowth, cfg.Rules[1].Kind)

	census, ok := r.Lookup("population-census")
	require.True(t, ok)
	assert.Equal(t, 2014, census.TimeOverrides["2"])

	le, ok := r.Lookup("life-expectancy")
	require.True(t, ok)
	assert.True(t, le.IndexedKeys)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := DefaultRegistry()
	_, ok := r.Lookup("no-such-dataset")
	assert.False(t, ok)
}

func TestRegistry_RegisterRejectsEmptyID(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&Config{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err) || errors.IsInvalid(err))
}

func TestRegistry_ValidateAggregatesErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Config{
		ID:        "broken",
		BaseYear:  1800,
		MaxSeries: -1,
		TimeOverrides: map[string]int{
			"0": 99,
		},
		Rules: []DerivationRule{
			{ID: "bad-kind", Kind: "median", Operands: []string{"0"}},
			{ID: "bad-growth", Kind: FormulaGrowth, Operands: []string{"0", "1"}},
			{ID: "bad-diff", Kind: FormulaDiff, Operands: []string{"0"}},
			{ID: "bad-sum", Kind: FormulaSum, Operands: []string{"0"}},
		},
	}))

	err := r.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "implausible year")
	assert.Contains(t, msg, "base year")
	assert.Contains(t, msg, "max_series")
	assert.Contains(t, msg, "unknown kind")
	assert.Contains(t, msg, "exactly one operand")
	assert.Contains(t, msg, "exactly two operands")
	assert.Contains(t, msg, "at least two operands")
}

func TestDerivationRule_LabelFallback(t *testing.T) {
	rule := DerivationRule{
		ID:     "natural-increase",
		Labels: map[string]string{"en": "Natural Increase", "ka": "ბუნებრივი მატება"},
	}
	assert.Equal(t, "ბუნებრივი მატება", rule.Label("ka"))
	assert.Equal(t, "Natural Increase", rule.Label("ru"))

	bare := DerivationRule{ID: "x"}
	assert.Equal(t, "x", bare.Label("en"))
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datasets.yaml")
	overlay := `
datasets:
  - id: births-deaths
    indexed_keys: true
  - id: agriculture-output
    max_series: 64
    rules:
      - id: output-growth
        kind: growth
        operands: ["0"]
        labels:
          en: Output Growth, %
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	r := DefaultRegistry()
	require.NoError(t, r.LoadFile(path))

	// Overlay replaces the built-in entry wholesale.
	bd, ok := r.Lookup("births-deaths")
	require.True(t, ok)
	assert.True(t, bd.IndexedKeys)
	assert.Empty(t, bd.Rules)

	added, ok := r.Lookup("agriculture-output")
	require.True(t, ok)
	assert.Equal(t, 64, added.MaxSeries)
}

func TestRegistry_LoadFileMissing(t *testing.T) {
	r := NewRegistry()
	err := r.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigNotFound)
}

func TestRegistry_LoadFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datasets: {nope"), 0o644))

	err := NewRegistry().LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
