package core

import (
	"github.com/trancendos/secrets-portal/internal/detectors"
	"github.com/trancendos/secrets-portal/internal/engine"
	"github.com/trancendos/secrets-portal/internal/report"
	"github.com/trancendos/secrets-portal/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type Config = engine.Config
type RunResult = engine.Result
type Candidate = types.Candidate
type Result = types.Result

var (
	ErrReadInput   = engine.ErrReadInput
	ErrWriteOutput = engine.ErrWriteOutput
)

// Extract runs the pattern registry over content.
func Extract(content string) *Result { return detectors.Extract(content) }

// Format renders res as json, env, yaml or csv. Unknown formats render as json.
func Format(res *Result, format string) (string, error) { return report.Format(res, format) }

// Run reads cfg.File, extracts, and writes the formatted output.
func Run(cfg Config) (RunResult, error) { return engine.Run(cfg) }

// Categories returns the result keys in output order.
func Categories() []string { return detectors.Keys() }
