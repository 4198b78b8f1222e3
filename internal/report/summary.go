package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/trancendos/secrets-portal/internal/types"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// summaryLines are the categories shown in the run summary, in order.
var summaryLines = []struct{ key, label string }{
	{"apiKeys", "API Keys"},
	{"tokens", "Tokens"},
	{"passwords", "Passwords"},
	{"envVars", "Environment Variables"},
}

// PrintSummary prints where the output went and the headline counts.
func PrintSummary(w io.Writer, outputPath string, res *types.Result, opts PrintOptions) {
	style := func(s lipgloss.Style, text string) string {
		if opts.NoColor {
			return text
		}
		return s.Render(text)
	}
	fmt.Fprintf(w, "%s %s\n", style(okStyle, "✅ Secrets extracted to"), outputPath)
	fmt.Fprintln(w, style(labelStyle, "📊 Found:"))
	for _, l := range summaryLines {
		fmt.Fprintf(w, "   - %s: %s\n", l.label, style(countStyle, fmt.Sprint(res.Count(l.key))))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
