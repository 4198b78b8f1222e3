package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/trancendos/secrets-portal/internal/detectors"
	"github.com/trancendos/secrets-portal/internal/report"
	"github.com/trancendos/secrets-portal/internal/types"
)

const (
	DefaultFile      = "secrets.env"
	DefaultFormat    = "json"
	DefaultOutputDir = "output"
)

var (
	// ErrReadInput wraps any failure to read the input file.
	ErrReadInput = errors.New("read input")
	// ErrWriteOutput wraps failures creating the output directory or file.
	ErrWriteOutput = errors.New("write output")
)

// Config controls a single extraction run.
type Config struct {
	File      string
	Format    string
	OutputDir string
	// MaxBytes rejects larger inputs; 0 means unlimited.
	MaxBytes int64
}

func (c Config) withDefaults() Config {
	if c.File == "" {
		c.File = DefaultFile
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	return c
}

// Result describes a completed run.
type Result struct {
	Extraction *types.Result
	OutputPath string
	Rendered   string
	Bytes      int
	Digest     string
	Duration   time.Duration
}

// Run performs the extraction described by cfg. The input is read before
// anything is created on disk, so a failed read leaves no output behind.
func Run(cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	data, err := readInput(cfg.File, cfg.MaxBytes)
	if err != nil {
		return Result{}, err
	}

	res := detectors.Extract(string(data))
	rendered, err := report.Format(res, cfg.Format)
	if err != nil {
		return Result{}, fmt.Errorf("format %s: %w", cfg.Format, err)
	}

	out := filepath.Join(cfg.OutputDir, report.FileName(cfg.Format))
	if err := writeOutput(out, rendered); err != nil {
		return Result{}, err
	}

	r := Result{
		Extraction: res,
		OutputPath: out,
		Rendered:   rendered,
		Bytes:      len(data),
		Digest:     fastHash(data),
		Duration:   time.Since(start),
	}
	log.Debug().
		Str("file", cfg.File).
		Str("format", cfg.Format).
		Str("digest", r.Digest).
		Int("candidates", res.Total()).
		Dur("duration", r.Duration).
		Msg("extraction complete")
	return r, nil
}

func readInput(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	defer f.Close()

	if maxBytes > 0 {
		if st, err := f.Stat(); err == nil && st.Size() > maxBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrReadInput, path, st.Size(), maxBytes)
		}
	}
	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrReadInput, path, maxBytes)
	}
	return data, nil
}

func writeOutput(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	// Extracted values are sensitive; keep the file owner-only.
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
