package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/trancendos/secrets-portal/internal/types"
)

// Listing is the last secret listing fetched for a repository.
type Listing struct {
	Repo      string         `json:"repo"`
	Secrets   []types.Secret `json:"secrets"`
	Timestamp time.Time      `json:"timestamp"`
	Count     int            `json:"count"`
}

// Dir is the default cache directory.
func Dir() string {
	if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
		return filepath.Join(base, "secrets-portal")
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "secrets-portal")
}

func listingPath(dir, repo string) string {
	name := strings.NewReplacer("/", "__", "\\", "__", ":", "_").Replace(repo)
	return filepath.Join(dir, "listing-"+name+".json")
}

// SaveListing stores secrets as the latest listing for repo.
func SaveListing(dir, repo string, secrets []types.Secret) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	l := Listing{
		Repo:      repo,
		Secrets:   secrets,
		Timestamp: time.Now(),
		Count:     len(secrets),
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(listingPath(dir, repo), b, 0o600)
}

// LoadListing loads the last listing saved for repo.
func LoadListing(dir, repo string) (Listing, error) {
	var l Listing
	b, err := os.ReadFile(listingPath(dir, repo))
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal(b, &l); err != nil {
		return l, err
	}
	return l, nil
}

// Changes compares two listings by name. Both results are sorted.
func Changes(prev, cur []types.Secret) (added, removed []string) {
	before := make(map[string]bool, len(prev))
	for _, s := range prev {
		before[s.Name] = true
	}
	now := make(map[string]bool, len(cur))
	for _, s := range cur {
		now[s.Name] = true
		if !before[s.Name] {
			added = append(added, s.Name)
		}
	}
	for n := range before {
		if !now[n] {
			removed = append(removed, n)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
