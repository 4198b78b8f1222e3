package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxValueLength is the largest secret value GitHub accepts.
const MaxValueLength = 65536

var secretNameRe = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// SecretName reports whether name is a valid Actions secret name.
func SecretName(name string) error {
	if name == "" {
		return fmt.Errorf("secret name is required")
	}
	if !secretNameRe.MatchString(name) {
		return fmt.Errorf("invalid secret name %q: use uppercase letters, digits and underscores, not starting with a digit", name)
	}
	return nil
}

// SecretValue checks the value is non-empty and within GitHub's size limit.
func SecretValue(value string) error {
	if !LengthBetween(value, 1, MaxValueLength) {
		if value == "" {
			return fmt.Errorf("secret value is required")
		}
		return fmt.Errorf("secret value too long: %d bytes (max %d)", len(value), MaxValueLength)
	}
	return nil
}

// LengthBetween returns true if n is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// IsAlphabet returns true if all characters in s are in allowed set.
func IsAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// Mask hides all but the first and last two characters. Short values are
// masked entirely.
func Mask(value string) string {
	n := utf8.RuneCountInString(value)
	if n <= 4 {
		return strings.Repeat("•", n)
	}
	r := []rune(value)
	return string(r[:2]) + strings.Repeat("•", n-4) + string(r[n-2:])
}

const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// Sanitize trims s and drops every character outside [A-Za-z0-9_-].
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(safeChars, s[i]) >= 0 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
