package detectors

import (
	"regexp"

	"github.com/trancendos/secrets-portal/internal/types"
)

// findAll returns every non-overlapping match of re in content, left to
// right. FindAllStringSubmatch keeps no state between calls.
func findAll(re *regexp.Regexp, content string) [][]string {
	return re.FindAllStringSubmatch(content, -1)
}

// candidates turns the matches of a single rule into candidates.
func candidates(r Rule, content string) []types.Candidate {
	var out []types.Candidate
	for _, m := range findAll(r.re, content) {
		if r.Env {
			out = append(out, types.Candidate{Name: m[1], Value: m[2], Confidence: r.Confidence})
			continue
		}
		v := m[0]
		if len(m) > 1 && m[1] != "" {
			v = m[1]
		}
		out = append(out, types.Candidate{Value: v, Confidence: r.Confidence, Pattern: r.Name})
	}
	return out
}
