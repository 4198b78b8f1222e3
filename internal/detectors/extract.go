package detectors

import "github.com/trancendos/secrets-portal/internal/types"

// Extract runs every rule over content and buckets the matches by category.
// All registered categories are present in the result. The same literal
// matched by two rules shows up once per category.
func Extract(content string) *types.Result {
	res := types.NewResult(Keys()...)
	for _, r := range all {
		for _, c := range candidates(r, content) {
			res.Add(r.Key, c)
		}
	}
	return res
}

// RunRule runs a single named rule. ok is false for unknown names.
func RunRule(name, content string) ([]types.Candidate, bool) {
	r, ok := Lookup(name)
	if !ok {
		return nil, false
	}
	cs := candidates(r, content)
	if cs == nil {
		cs = []types.Candidate{}
	}
	return cs, true
}
