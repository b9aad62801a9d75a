package pxclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// noDataSentinels are the upstream encodings of "no observation". They map
// to absent cells, never to zero.
var noDataSentinels = map[string]bool{
	"":    true,
	"-":   true,
	"..":  true,
	"...": true,
	".":   true,
}

// unwrapEnvelope peels the envelope variants PX-Web deployments are known to
// produce and returns the payload object:
//
//	{...}                  raw
//	{"results": {...}}     results wrapper
//	{"data": {...}}        data wrapper (only when the value is an object)
//	[{...}]                single-element array
//
// Unwrapping is applied once, not recursively; nested envelopes have never
// been observed.
func unwrapEnvelope(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "unwrapEnvelope",
			"empty response body")
	}

	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "unwrapEnvelope",
				"array decode: "+err.Error())
		}
		if len(arr) != 1 {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "unwrapEnvelope",
				"expected a single-element array, got "+strconv.Itoa(len(arr)))
		}
		trimmed = bytes.TrimSpace(arr[0])
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "unwrapEnvelope",
			"object decode: "+err.Error())
	}

	for _, key := range []string{"results", "data"} {
		inner, ok := envelope[key]
		if !ok || len(envelope) != 1 {
			continue
		}
		if innerTrimmed := bytes.TrimSpace(inner); len(innerTrimmed) > 0 && innerTrimmed[0] == '{' {
			return innerTrimmed, nil
		}
	}

	return trimmed, nil
}

// parseCellValue converts an upstream cell string into a value. ok is false
// for "no data" sentinels; a malformed non-sentinel value is an error, since
// silent zeroes would corrupt derived series.
func parseCellValue(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if noDataSentinels[s] {
		return 0, false, nil
	}

	// Some tables use space (regular or non-breaking) or comma as the
	// thousands separator.
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, errors.WrapInvalid(errors.ErrDecodeFailed, "pxclient", "parseCellValue",
			"unparseable cell value "+strconv.Quote(s))
	}
	return v, true, nil
}
