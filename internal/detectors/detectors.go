package detectors

import (
	"regexp"
	"strings"
)

const (
	confidenceEnv     = 0.9
	confidenceGeneric = 0.7
)

// Rule pairs a named category with its expression and static confidence.
// Env rules capture name and value separately.
type Rule struct {
	Name       string
	Key        string
	Confidence float64
	Env        bool
	re         *regexp.Regexp
}

// Pattern returns the source of the rule's expression.
func (r Rule) Pattern() string { return r.re.String() }

// assignment builds the shared "name = value" / "name: value" shape with
// optional quoting around both sides.
func assignment(names string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)['"]?(?:` + names + `)['"]?\s*[:=]\s*['"]?([^'"\s]+)['"]?`)
}

// categoryKeys maps rule names to output keys so that plural-looking names
// never depend on the suffix heuristic.
var categoryKeys = map[string]string{
	"apiKey":   "apiKeys",
	"token":    "tokens",
	"password": "passwords",
	"secret":   "secrets",
	"key":      "keys",
	"url":      "urls",
	"email":    "emails",
	"env":      "envVars",
}

var all = []Rule{
	newRule("apiKey", assignment(`api[_-]?key|apikey`), false),
	newRule("token", assignment(`token|auth[_-]?token`), false),
	newRule("password", assignment(`password|passwd|pwd`), false),
	newRule("secret", assignment(`secret|client[_-]?secret`), false),
	newRule("key", assignment(`private[_-]?key|private_key|privatekey`), false),
	newRule("url", regexp.MustCompile(`(?i)(?:http|https)://[^\s]+`), false),
	newRule("email", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), false),
	// Lazy value plus optional \r keeps CRLF line endings out of the value.
	newRule("env", regexp.MustCompile(`(?m)^([A-Z_][A-Z0-9_]*)\s*=\s*(.+?)\r?$`), true),
}

func newRule(name string, re *regexp.Regexp, env bool) Rule {
	conf := confidenceGeneric
	if env {
		conf = confidenceEnv
	}
	return Rule{Name: name, Key: CategoryKey(name), Confidence: conf, Env: env, re: re}
}

// CategoryKey returns the result key for a rule name.
func CategoryKey(name string) string {
	if k, ok := categoryKeys[name]; ok {
		return k
	}
	return pluralize(name)
}

func pluralize(name string) string {
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

// Rules returns a copy of the registry.
func Rules() []Rule {
	out := make([]Rule, len(all))
	copy(out, all)
	return out
}

// Names returns the rule names in registry order.
func Names() []string {
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.Name
	}
	return out
}

// Keys returns the category keys in registry order.
func Keys() []string {
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.Key
	}
	return out
}

// Lookup finds a rule by name.
func Lookup(name string) (Rule, bool) {
	for _, r := range all {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
