// Package detectors holds the fixed registry of secret patterns and the
// matcher that buckets their matches into an extraction result. Matching is
// a pure function of the input text: every call iterates its own matches.
package detectors
