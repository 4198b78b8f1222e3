package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for secrets-portal.
type FileConfig struct {
	Repo      *string `yaml:"repo"`
	APIURL    *string `yaml:"api_url"`
	LogLevel  *string `yaml:"log_level"`
	NoColor   *bool   `yaml:"no_color"`
	AuditFile *string `yaml:"audit_file"`

	// Extraction defaults mirror the extract flags.
	Format    *string `yaml:"format"`
	OutputDir *string `yaml:"output_dir"`
	MaxSize   *string `yaml:"max_size"`

	Sync *SyncConfig `yaml:"sync"`
}

// SyncConfig holds defaults for the sync command.
type SyncConfig struct {
	Source *string `yaml:"source"`
	Target *string `yaml:"target"`
	Filter *string `yaml:"filter"`
	Match  *string `yaml:"match"`
}

// LocalNames are the repo-local config file names in search order.
var LocalNames = []string{".secrets-portal.yml", ".secrets-portal.yaml", "secrets-portal.yml", "secrets-portal.yaml"}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath is the global config location under XDG_CONFIG_HOME or
// ~/.config, or "" when neither is available.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "secrets-portal", "config.yml")
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// SyncOrEmpty returns the sync section, never nil.
func (fc FileConfig) SyncOrEmpty() SyncConfig {
	if fc.Sync == nil {
		return SyncConfig{}
	}
	return *fc.Sync
}

// ParseSize converts a human size such as "10MB" to bytes. Empty means
// unlimited and yields 0.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := units.FromHumanSize(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: negative", s)
	}
	return n, nil
}

// Starter is the commented template written by `config init`.
const Starter = `# secrets-portal configuration
# Values here are overridden by command-line flags.

# Repository to manage (owner/name). Defaults to the git origin remote.
# repo: Trancendos/secrets-portal

# GitHub API base URL (GitHub Enterprise: https://ghe.example.com/api/v3)
# api_url: https://api.github.com

# log_level: info
# no_color: false
# audit_file: ~/.config/secrets-portal/audit.jsonl

# Extraction defaults
format: json
output_dir: output
# max_size: 10MB

# sync:
#   source: Trancendos/trancendos-ecosystem
#   target: Trancendos/secrets-portal
#   filter: ^AWS_
#   match: "*_TOKEN"
`

// WriteStarter writes Starter to path unless a file already exists there
// and force is false.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Starter), 0o644)
}
