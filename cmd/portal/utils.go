package portal

import (
	"errors"
	"os"
	"runtime/debug"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/rs/zerolog/log"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/gh"
	"github.com/trancendos/secrets-portal/internal/git"
	"github.com/trancendos/secrets-portal/internal/update"
)

var errNoToken = errors.New("no GitHub token: pass --token or set GITHUB_TOKEN or GH_TOKEN")

func selfUpdate() (string, error) {
	v := version
	// Use build info if tag overridden at build-time
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), update.Owner+"/"+update.Repo)
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}

func token() string {
	if flagToken != "" {
		return flagToken
	}
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

func apiURL() string {
	return pickString(flagAPIURL, lcfg.APIURL, gcfg.APIURL)
}

func newClient() (*gh.Client, error) {
	t := token()
	if t == "" {
		return nil, errNoToken
	}
	var opts []gh.Option
	if u := apiURL(); u != "" {
		opts = append(opts, gh.WithBaseURL(u))
	}
	return gh.NewClient(t, opts...)
}

// resolveRepo picks the target repository: flag > local > global > git
// origin > built-in default.
func resolveRepo() (gh.Repo, error) {
	s := pickString(flagRepo, lcfg.Repo, gcfg.Repo)
	if s == "" {
		if wd, err := os.Getwd(); err == nil {
			if origin, _, _ := git.RepoMetadata(wd); origin != "" {
				log.Debug().Str("repo", origin).Msg("Using repository from git origin")
				s = origin
			}
		}
	}
	if s == "" {
		s = defaultRepo
	}
	return gh.ParseRepo(s)
}

func record(action audit.Action, repo, secret string, err error, message string) {
	e := auditLog.Record(action, repo, secret, err, message)
	log.Debug().Str("id", e.ID).Str("action", string(e.Action)).Str("status", string(e.Status)).Msg("Audit entry recorded")
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}
