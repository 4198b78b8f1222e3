package update

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/google/go-github/v69/github"
)

const (
	Owner         = "Trancendos"
	Repo          = "secrets-portal"
	cacheFileName = "update.json"
	cacheTTL      = 24 * time.Hour
)

type cache struct {
	LastChecked time.Time `json:"last_checked"`
	Latest      string    `json:"latest"`
}

// Options tunes Check. Zero value checks api.github.com.
type Options struct {
	NoNetwork bool
	// APIURL overrides the GitHub API base.
	APIURL string
	// ConfigDir overrides where the check cache lives.
	ConfigDir string
}

func configDir(o Options) string {
	if o.ConfigDir != "" {
		return o.ConfigDir
	}
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "secrets-portal")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "secrets-portal")
}

func loadCache(dir string) (cache, error) {
	var c cache
	if dir == "" {
		return c, errors.New("no config dir")
	}
	b, err := os.ReadFile(filepath.Join(dir, cacheFileName))
	if err != nil {
		return c, err
	}
	_ = json.Unmarshal(b, &c)
	return c, nil
}

func saveCache(dir string, c cache) {
	if dir == "" {
		return
	}
	_ = os.MkdirAll(dir, 0755)
	b, _ := json.MarshalIndent(c, "", "  ")
	_ = os.WriteFile(filepath.Join(dir, cacheFileName), b, 0644)
}

func latestVersionOnline(ctx context.Context, apiURL string) (string, error) {
	client := github.NewClient(&http.Client{Timeout: 2 * time.Second})
	client.UserAgent = "secrets-portal-updater"
	if apiURL != "" {
		u, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return "", err
		}
		client.BaseURL = u
	}
	rel, _, err := client.Repositories.GetLatestRelease(ctx, Owner, Repo)
	if err != nil {
		return "", err
	}
	v := rel.GetTagName()
	if v == "" {
		v = rel.GetName()
	}
	return v, nil
}

// Check returns (latest, isNewer, error). It uses a 24h cache and skips in CI.
func Check(ctx context.Context, current string, opts Options) (string, bool, error) {
	if os.Getenv("CI") != "" || opts.NoNetwork {
		return "", false, nil
	}
	dir := configDir(opts)
	current = normalize(current)
	c, _ := loadCache(dir)
	latest := c.Latest
	if time.Since(c.LastChecked) > cacheTTL || latest == "" {
		if v, err := latestVersionOnline(ctx, opts.APIURL); err == nil {
			latest = normalize(v)
			c.Latest = latest
			c.LastChecked = time.Now()
			saveCache(dir, c)
		}
	}
	if latest == "" || current == "" {
		return latest, false, nil
	}
	return latest, compare(latest, current) > 0, nil
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(v, "v")
}

// compare returns 1 if a>b, -1 if a<b, 0 if equal. Unparseable versions
// compare equal so they never trigger an update notice.
func compare(a, b string) int {
	av, err := semver.ParseTolerant(a)
	if err != nil {
		return 0
	}
	bv, err := semver.ParseTolerant(b)
	if err != nil {
		return 0
	}
	return av.Compare(bv)
}
