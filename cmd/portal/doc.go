// Package portal provides the command-line interface for secrets-portal.
// It wires the extraction pipeline, the GitHub secrets commands (list,
// create, delete, sync), the audit log and the terminal dashboard into a
// single cobra command tree.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/trancendos/secrets-portal/cmd/portal"
//	func main() { portal.Execute() }
package portal
