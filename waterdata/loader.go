package waterdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// readTable reads a tabular file into raw string records, dispatching on the
// file extension.
func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "waterdata", "readTable",
			"unsupported file extension "+filepath.Ext(path))
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapInvalid(errors.ErrFileNotFound, "waterdata", "readCSV", path)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	// Ragged rows are common in hand-maintained reference files.
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapInvalid(errors.ErrFileNotFound, "waterdata", "readXLSX", path)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "waterdata", "readXLSX",
			"workbook has no sheets")
	}

	return f.GetRows(sheets[0])
}

// cellFloat parses an optional numeric column; an absent column or blank
// cell is zero, a malformed non-blank cell is an error.
func cellFloat(row []string, cols map[string]int, key string, rowIdx int) (float64, error) {
	raw := cellString(row, cols, key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, errors.WrapInvalid(errors.ErrParsingFailed, "waterdata", "cellFloat",
			fmt.Sprintf("row %d column %s: %q", rowIdx+2, key, raw))
	}
	return v, nil
}
