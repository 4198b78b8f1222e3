package report

import (
	"bytes"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlight returns text with terminal syntax colouring for format. On any
// failure the input is returned unchanged.
func Highlight(text, format string) string {
	lexer := lexers.Get(lexerName(format))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return buf.String()
}

func lexerName(format string) string {
	switch format {
	case "env":
		return "bash"
	case "yaml":
		return "yaml"
	case "csv":
		return "plaintext"
	default:
		return "json"
	}
}
