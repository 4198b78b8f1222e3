// Package core provides a small, stable facade over the extractor for
// external integrations, without exposing internal implementation packages.
//
// Example:
//
//	res := core.Extract(string(data))
//	out, err := core.Format(res, "yaml")
//	if err != nil { /* handle */ }
//	fmt.Println(out)
package core
