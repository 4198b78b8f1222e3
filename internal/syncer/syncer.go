// Package syncer plans copying secret names from one repository to another.
// Values cannot be read back from GitHub, so every selected secret is
// reported for manual re-creation in the target.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"

	"github.com/trancendos/secrets-portal/internal/gh"
	"github.com/trancendos/secrets-portal/internal/types"
)

const (
	DefaultSource = "Trancendos/trancendos-ecosystem"
	DefaultTarget = "Trancendos/secrets-portal"
	ReportFile    = "sync-report.json"
)

// SecretLister is the part of the GitHub client a sync needs.
type SecretLister interface {
	ListSecrets(ctx context.Context, repo gh.Repo) ([]types.Secret, error)
}

type Options struct {
	Source gh.Repo
	Target gh.Repo
	// Filter is a regular expression matched anywhere in the name.
	Filter string
	// Match is a doublestar glob the whole name must match.
	Match string
}

// Report is written to sync-report.json after every run.
type Report struct {
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Synced    int      `json:"synced"`
	Failed    int      `json:"failed"`
	Filter    string   `json:"filter"`
	Secrets   []string `json:"secrets,omitempty"`
}

// Plan returns the names in secrets selected by filter and match. Empty
// selectors select everything.
func Plan(secrets []types.Secret, filter, match string) ([]string, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		if re, err = regexp.Compile(filter); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}
	if match != "" && !doublestar.ValidatePattern(match) {
		return nil, fmt.Errorf("invalid match pattern %q", match)
	}

	out := []string{}
	for _, s := range secrets {
		if re != nil && !re.MatchString(s.Name) {
			continue
		}
		if match != "" {
			if ok, _ := doublestar.Match(match, s.Name); !ok {
				continue
			}
		}
		out = append(out, s.Name)
	}
	return out, nil
}

// Run lists the source secrets and builds the report. A failure to list
// the source aborts the sync.
func Run(ctx context.Context, client SecretLister, opts Options) (Report, error) {
	log.Info().Str("source", opts.Source.String()).Str("target", opts.Target.String()).Msg("🔄 Syncing secrets")

	secrets, err := client.ListSecrets(ctx, opts.Source)
	if err != nil {
		return Report{}, err
	}
	names, err := Plan(secrets, opts.Filter, opts.Match)
	if err != nil {
		return Report{}, err
	}
	log.Info().Int("count", len(names)).Msg("📋 Found secrets to sync")

	r := Report{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Source:    opts.Source.String(),
		Target:    opts.Target.String(),
		Filter:    describeFilter(opts),
		Secrets:   names,
	}
	for _, n := range names {
		// The value stays in the source; the target needs a manual create.
		log.Info().Str("secret", n).Msg("📌 Secret")
		r.Synced++
	}
	return r, nil
}

func describeFilter(opts Options) string {
	switch {
	case opts.Filter != "" && opts.Match != "":
		return opts.Filter + " && " + opts.Match
	case opts.Filter != "":
		return opts.Filter
	case opts.Match != "":
		return opts.Match
	default:
		return "none"
	}
}

// WriteReport writes r as indented JSON to path.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sync report: %w", err)
	}
	return nil
}
