// Package engine runs one extraction end to end: read the input file, match
// it against the pattern registry, render the chosen format and write it
// under the output directory. This package is internal; external consumers
// should use the stable facade in pkg/core.
package engine
