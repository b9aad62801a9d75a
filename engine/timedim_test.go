package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolozi2001/pcaxis-server-sub000/cube"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
)

func TestNormalizeYear(t *testing.T) {
	e := newEngine(t, dataset.NewRegistry())

	dim := &cube.Dimension{
		ID:     "Year",
		Values: []string{"2015", "x1", "x2", "x3", "junk", "99"},
		Labels: map[string]string{
			"x1": "2016",
			"x2": "2017*",
			"x3": "2018 წელი",
		},
	}

	tests := []struct {
		name     string
		raw      string
		pos      int
		ds       *dataset.Config
		wantYear int
		wantTier YearTier
	}{
		{name: "literal value", raw: "2015", pos: 0, wantYear: 2015, wantTier: TierLiteral},
		{name: "label parses directly", raw: "x1", pos: 1, wantYear: 2016, wantTier: TierLabel},
		{name: "label with star suffix", raw: "x2", pos: 2, wantYear: 2017, wantTier: TierLabel},
		{name: "label with georgian suffix", raw: "x3", pos: 3, wantYear: 2018, wantTier: TierLabel},
		{
			name: "dataset override",
			raw:  "junk", pos: 4,
			ds:       &dataset.Config{TimeOverrides: map[string]int{"junk": 1989}},
			wantYear: 1989, wantTier: TierOverride,
		},
		{name: "positional fallback", raw: "99", pos: 5, wantYear: 2022, wantTier: TierPositional},
		{
			name: "positional with dataset base year",
			raw:  "99", pos: 2,
			ds:       &dataset.Config{BaseYear: 1994},
			wantYear: 1996, wantTier: TierPositional,
		},
		{
			name: "implausible override falls through",
			raw:  "junk", pos: 1,
			ds:       &dataset.Config{TimeOverrides: map[string]int{"junk": 12}},
			wantYear: 2018, wantTier: TierPositional,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, tier := e.normalizeYear(tt.raw, tt.pos, dim, tt.ds)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

func TestNormalizeYear_EngineBaseYear(t *testing.T) {
	e := newEngine(t, dataset.NewRegistry(), WithBaseYear(2000))

	dim := &cube.Dimension{ID: "Year", Values: []string{"a"}}
	year, tier := e.normalizeYear("a", 3, dim, nil)
	assert.Equal(t, 2003, year)
	assert.Equal(t, TierPositional, tier)
}

func TestResolveTime(t *testing.T) {
	tests := []struct {
		name string
		dims []cube.Dimension
		want string
	}{
		{
			name: "english identifier",
			dims: []cube.Dimension{
				{ID: "Region", Values: []string{"r1"}},
				{ID: "Year", Values: []string{"2020"}},
			},
			want: "Year",
		},
		{
			name: "georgian identifier",
			dims: []cube.Dimension{
				{ID: "რეგიონი", Values: []string{"r1"}},
				{ID: "წელი", Values: []string{"2020"}},
			},
			want: "წელი",
		},
		{
			name: "case insensitive substring",
			dims: []cube.Dimension{
				{ID: "Category", Values: []string{"c"}},
				{ID: "TIME_PERIOD", Values: []string{"2020"}},
			},
			want: "TIME_PERIOD",
		},
		{
			name: "no match falls back to first dimension",
			dims: []cube.Dimension{
				{ID: "A", Values: []string{"2020"}},
				{ID: "B", Values: []string{"b"}},
			},
			want: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := cube.NewBuilder("t", "", tt.dims).Build()
			require.NoError(t, err)
			id, _ := resolveTime(c)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestResolveTime_SkipsBlankValues(t *testing.T) {
	c, err := cube.NewBuilder("t", "", []cube.Dimension{
		{ID: "Year", Values: []string{"2020", "", "  ", "2021"}},
	}).Build()
	require.NoError(t, err)

	_, values := resolveTime(c)
	assert.Equal(t, []string{"2020", "2021"}, values)
}

func TestYearTierString(t *testing.T) {
	assert.Equal(t, "literal", TierLiteral.String())
	assert.Equal(t, "label", TierLabel.String())
	assert.Equal(t, "override", TierOverride.String())
	assert.Equal(t, "positional", TierPositional.String())
	assert.Equal(t, "unknown", YearTier(0).String())
}
