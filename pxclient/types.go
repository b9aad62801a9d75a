package pxclient

// Variable is one axis of a PX-Web table as the metadata endpoint describes
// it: parallel value-code and value-text lists.
type Variable struct {
	Code        string   `json:"code"`
	Text        string   `json:"text"`
	Values      []string `json:"values"`
	ValueTexts  []string `json:"valueTexts"`
	Time        bool     `json:"time"`
	Elimination bool     `json:"elimination"`
}

// TableMeta is the metadata response for one table.
type TableMeta struct {
	Title     string     `json:"title"`
	Variables []Variable `json:"variables"`
}

// dataQuery is the POST body of a data request. We always select every value
// of every variable; filtering happens downstream, not at fetch time.
type dataQuery struct {
	Query    []querySelection `json:"query"`
	Response queryResponse    `json:"response"`
}

type querySelection struct {
	Code      string         `json:"code"`
	Selection selectionRange `json:"selection"`
}

type selectionRange struct {
	Filter string   `json:"filter"`
	Values []string `json:"values"`
}

type queryResponse struct {
	Format string `json:"format"`
}

// TableData is the data response: one entry per populated cell, keyed by one
// value-code per variable in metadata order. Values arrive as strings and may
// be "no data" sentinels.
type TableData struct {
	Data []DataCell `json:"data"`
}

type DataCell struct {
	Key    []string `json:"key"`
	Values []string `json:"values"`
}
