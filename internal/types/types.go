package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Candidate is a single heuristic match produced by the extractor. Name is
// only set for environment-style matches, Pattern only for the others.
type Candidate struct {
	Name       string  `json:"name,omitempty"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern,omitempty"`
}

// Result maps category keys (apiKeys, envVars, ...) to the candidates found
// for them. Keys keep their insertion order and are always present once
// registered, even when empty.
type Result struct {
	keys    []string
	buckets map[string][]Candidate
}

// NewResult returns a Result with every key present and empty.
func NewResult(keys ...string) *Result {
	r := &Result{buckets: make(map[string][]Candidate, len(keys))}
	for _, k := range keys {
		r.ensure(k)
	}
	return r
}

func (r *Result) ensure(key string) {
	if r.buckets == nil {
		r.buckets = map[string][]Candidate{}
	}
	if _, ok := r.buckets[key]; ok {
		return
	}
	r.keys = append(r.keys, key)
	r.buckets[key] = []Candidate{}
}

// Add appends a candidate under key, registering the key if needed.
func (r *Result) Add(key string, c Candidate) {
	r.ensure(key)
	r.buckets[key] = append(r.buckets[key], c)
}

// Keys returns the category keys in order.
func (r *Result) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the candidates for key; unknown keys yield an empty slice.
func (r *Result) Get(key string) []Candidate {
	if c, ok := r.buckets[key]; ok {
		return c
	}
	return []Candidate{}
}

func (r *Result) Has(key string) bool {
	_, ok := r.buckets[key]
	return ok
}

func (r *Result) Count(key string) int { return len(r.buckets[key]) }

// Total is the number of candidates across all categories.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.buckets {
		n += len(c)
	}
	return n
}

// MarshalJSON writes the categories as an object in key order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, r.Get(k)); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON encodes v without HTML escaping so URLs and values survive
// verbatim.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON reads an object of candidate arrays, keeping document order.
func (r *Result) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	*r = Result{buckets: map[string][]Candidate{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected key, got %v", tok)
		}
		var cs []Candidate
		if err := dec.Decode(&cs); err != nil {
			return fmt.Errorf("category %s: %w", key, err)
		}
		r.ensure(key)
		r.buckets[key] = append(r.buckets[key], cs...)
	}
	_, err = dec.Token()
	return err
}

// Secret is the metadata GitHub exposes for an Actions secret. Values are
// never readable.
type Secret struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Visibility string    `json:"visibility,omitempty"`
}

// User is the authenticated GitHub account.
type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email,omitempty"`
}
