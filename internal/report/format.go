package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trancendos/secrets-portal/internal/types"
	"github.com/trancendos/secrets-portal/internal/validate"
)

// Formats lists the output formats with a dedicated rendering. Any other
// name renders as JSON.
var Formats = []string{"json", "env", "yaml", "csv"}

// Format renders res in the named format.
func Format(res *types.Result, format string) (string, error) {
	switch format {
	case "env":
		return formatEnv(res)
	case "yaml":
		return formatYAML(res)
	case "csv":
		return formatCSV(res)
	default:
		return encodeJSON(res, true)
	}
}

// Extension returns the file extension used for an output in format.
func Extension(format string) string {
	if format == "env" {
		return "env"
	}
	if ext := validate.Sanitize(format); ext != "" {
		return ext
	}
	return "json"
}

// FileName is the name of the written output for format.
func FileName(format string) string {
	return "extracted-secrets." + Extension(format)
}

func formatEnv(res *types.Result) (string, error) {
	var lines []string
	for _, k := range res.Keys() {
		cs := res.Get(k)
		if len(cs) == 0 {
			continue
		}
		js, err := encodeJSON(cs, false)
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		lines = append(lines, k+`="`+js+`"`)
	}
	return strings.Join(lines, "\n"), nil
}

func formatYAML(res *types.Result) (string, error) {
	blocks := make([]string, 0, len(res.Keys()))
	for _, k := range res.Keys() {
		js, err := encodeJSON(res.Get(k), true)
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		blocks = append(blocks, k+":\n  "+strings.ReplaceAll(js, "\n", "\n  "))
	}
	return strings.Join(blocks, "\n"), nil
}

// formatCSV writes a loose CSV: a header of category names, then one row
// per category whose third column is the compact JSON with commas turned
// into semicolons.
func formatCSV(res *types.Result) (string, error) {
	keys := res.Keys()
	rows := []string{strings.Join(keys, ",")}
	for _, k := range keys {
		cs := res.Get(k)
		js, err := encodeJSON(cs, false)
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		rows = append(rows, fmt.Sprintf("%s,%d,%s", k, len(cs), strings.ReplaceAll(js, ",", ";")))
	}
	return strings.Join(rows, "\n"), nil
}

func encodeJSON(v any, indent bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
