// Package config loads secrets-portal settings from repo-local and global
// YAML files. Command-line flags take precedence over the local file, which
// takes precedence over the global one.
package config
