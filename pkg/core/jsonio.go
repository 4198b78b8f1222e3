package core

import (
	"encoding/json"
	"io"
)

// MarshalResult pretty-prints res as JSON for humans or pipelines.
func MarshalResult(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// UnmarshalResult decodes a JSON extraction produced by MarshalResult or
// the json output format.
func UnmarshalResult(r io.Reader) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
