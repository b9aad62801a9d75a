package dataset

// DefaultRegistry returns the built-in configuration table for the geostat
// demography datasets served by this instance. Series keys referenced by
// derivation rule operands are the numeric-string indexes assigned by the
// combinator's enumeration order, which is stable for a fixed cube shape.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	for _, cfg := range defaultConfigs {
		_ = r.Register(cfg)
	}
	return r
}

var defaultConfigs = []*Config{
	{
		// Births and deaths by year: series 0 = live births, 1 = deaths.
		ID:        "births-deaths",
		TablePath: "{lang}/database/demography/01-births-deaths.px",
		MaxSeries: 8,
		Rules: []DerivationRule{
			{
				ID:       "natural-increase",
				Kind:     FormulaDiff,
				Operands: []string{"0", "1"},
				Labels: map[string]string{
					"en": "Natural Increase",
					"ka": "ბუნებრივი მატება",
				},
			},
			{
				ID:       "births-growth",
				Kind:     FormulaGrowth,
				Operands: []string{"0"},
				Labels: map[string]string{
					"en": "Live Births Growth, %",
					"ka": "ცოცხლად დაბადებულთა ზრდა, %",
				},
			},
		},
	},
	{
		// Population by gender: series 0 = male, 1 = female.
		ID:        "population",
		TablePath: "{lang}/database/demography/02-population-by-gender.px",
		MaxSeries: 8,
		Rules: []DerivationRule{
			{
				ID:       "total-population",
				Kind:     FormulaSum,
				Operands: []string{"0", "1"},
				Labels: map[string]string{
					"en": "Total Population",
					"ka": "მოსახლეობა სულ",
				},
			},
		},
	},
	{
		// Census cubes encode time as opaque sequential indices with no
		// usable labels; map them to the actual census years.
		ID: "population-census",
		TablePath: "{lang}/database/demography/03-population-census.px",
		TimeOverrides: map[string]int{
			"0": 1989,
			"1": 2002,
			"2": 2014,
		},
		MaxSeries: 32,
	},
	{
		// Consumers key charts off numeric indexes here; label texts for
		// regions were revised in 2018 and must not break them again.
		ID:          "life-expectancy",
		TablePath:   "{lang}/database/demography/04-life-expectancy.px",
		IndexedKeys: true,
		MaxSeries:   16,
	},
	{
		ID:        "marriages-divorces",
		TablePath: "{lang}/database/demography/05-marriages-divorces.px",
		MaxSeries: 8,
		Rules: []DerivationRule{
			{
				ID:       "net-marriages",
				Kind:     FormulaDiff,
				Operands: []string{"0", "1"},
				Labels: map[string]string{
					"en": "Marriages Less Divorces",
					"ka": "ქორწინება გამოკლებული განქორწინება",
				},
			},
		},
	},
	{
		// Age-structure cubes declare time as the last dimension; the
		// lead-time processor reorders before generic flattening.
		ID:        "population-by-age",
		TablePath: "{lang}/database/demography/06-population-by-age.px",
		Processor: "lead-time",
		MaxSeries: 512,
	},
	{
		ID:        "migration",
		TablePath: "{lang}/database/demography/07-migration.px",
		BaseYear:  1994,
		MaxSeries: 8,
		Rules: []DerivationRule{
			{
				ID:       "net-migration",
				Kind:     FormulaDiff,
				Operands: []string{"0", "1"},
				Labels: map[string]string{
					"en": "Net Migration",
					"ka": "მიგრაციული სალდო",
				},
			},
			{
				ID:       "immigration-growth",
				Kind:     FormulaGrowth,
				Operands: []string{"0"},
				Labels: map[string]string{
					"en": "Immigration Growth, %",
					"ka": "იმიგრაციის ზრდა, %",
				},
			},
		},
	},
}
