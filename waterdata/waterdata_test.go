package waterdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRivers_CSV(t *testing.T) {
	path := writeCSV(t, "rivers.csv",
		"name,name_ka,length_km,total_length_km,basin_area_km2\n"+
			"Mtkvari,მტკვარი,400,1364,188400\n"+
			"Alazani,ალაზანი,390,407,\n"+
			"Rioni,რიონი,327,327,13400\n")

	s := NewStore(nil)
	require.NoError(t, s.LoadRivers(path))

	rivers := s.Rivers()
	require.Len(t, rivers, 3)

	// Sorted by descending length inside Georgia.
	assert.Equal(t, "Mtkvari", rivers[0].Name)
	assert.Equal(t, "მტკვარი", rivers[0].NameKa)
	assert.Equal(t, float64(1364), rivers[0].TotalLengthKm)
	assert.Equal(t, "Rioni", rivers[2].Name)

	// Blank optional cell parses as zero.
	assert.Equal(t, float64(0), rivers[1].BasinAreaKm2)
}

func TestLoadLakes_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakes.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"name", "name_ka", "area_km2", "max_depth_m"},
		{"Paravani", "ფარავანი", 37.5, 3.3},
		{"Tabatskuri", "ტაბაწყური", 14.2, 40.2},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s := NewStore(nil)
	require.NoError(t, s.LoadLakes(path))

	lakes := s.Lakes()
	require.Len(t, lakes, 2)
	assert.Equal(t, "Paravani", lakes[0].Name)
	assert.Equal(t, 37.5, lakes[0].AreaKm2)
	assert.Equal(t, 40.2, lakes[1].MaxDepthM)
}

func TestLoad_Failures(t *testing.T) {
	s := NewStore(nil)

	t.Run("missing file", func(t *testing.T) {
		err := s.LoadRivers(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrFileNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		err := s.LoadRivers(writeCSV(t, "rivers.txt", "name\nMtkvari\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidData)
	})

	t.Run("missing name column", func(t *testing.T) {
		err := s.LoadRivers(writeCSV(t, "rivers.csv", "length_km\n400\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidData)
	})

	t.Run("malformed number", func(t *testing.T) {
		err := s.LoadLakes(writeCSV(t, "lakes.csv", "name,area_km2\nParavani,big\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrParsingFailed)
	})
}

func TestParseRivers_SkipsBlankNames(t *testing.T) {
	path := writeCSV(t, "rivers.csv", "name,length_km\nMtkvari,400\n,100\n")

	s := NewStore(nil)
	require.NoError(t, s.LoadRivers(path))
	assert.Len(t, s.Rivers(), 1)
}
