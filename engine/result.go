package engine

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Row is one output row: a normalized year plus one value (or null) per
// series key, including derived keys. Every row carries exactly the same
// key set; missing cells are explicit nulls, never absent keys.
type Row struct {
	Year  int
	Cells map[string]*float64

	// order is the column ordering shared by all rows of a result.
	order []string
}

// Value returns the cell for a series key, nil when the key is unknown or
// the cell is null.
func (r Row) Value(key string) *float64 {
	return r.Cells[key]
}

// MarshalJSON emits the flat chart-ready shape consumers expect:
// {"year":2021,"0":10,"1":null,...} with columns in series-key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"year":`)
	buf.WriteString(strconv.Itoa(r.Year))

	for _, key := range r.order {
		buf.WriteByte(',')
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		if v := r.Cells[key]; v != nil {
			valJSON, err := json.Marshal(*v)
			if err != nil {
				return nil, err
			}
			buf.Write(valJSON)
		} else {
			buf.WriteString("null")
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// YearRange is the min/max of normalized years over included rows.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IndexLabel maps an output index back to a human-readable label, so API
// consumers can reconstruct labels without re-deriving them. For year
// mappings Tier records which normalization strategy produced the year.
type IndexLabel struct {
	Index string `json:"index"`
	Label string `json:"label"`
	Tier  string `json:"tier,omitempty"`
}

// Meta is the aggregate metadata block of a flatten result.
type Meta struct {
	RowCount        int          `json:"rowCount"`
	HasCategories   bool         `json:"hasCategories"`
	YearRange       *YearRange   `json:"yearRange,omitempty"`
	SeriesCount     int          `json:"seriesCount"`
	YearMapping     []IndexLabel `json:"yearMapping"`
	CategoryMapping []IndexLabel `json:"categoryMapping"`
}

// Result is the flat, chart-ready tabular form of one cube.
type Result struct {
	Title      string   `json:"title"`
	DatasetID  string   `json:"datasetId"`
	Dimensions []string `json:"dimensions"`
	Categories []string `json:"categories"`
	Rows       []Row    `json:"rows"`
	Meta       Meta     `json:"meta"`
}
