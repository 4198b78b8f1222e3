// Package git reads repository facts from the working tree without shelling
// out to the git binary.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// validateRoot validates and normalizes a repository root path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// repo is "owner/name" taken from the origin remote. Empty strings are
// returned for anything that cannot be determined.
func RepoMetadata(root string) (string, string, string) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return "", "", ""
	}
	r, err := gogit.PlainOpenWithOptions(validRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", ""
	}

	repo := ""
	if remote, err := r.Remote("origin"); err == nil {
		for _, u := range remote.Config().URLs {
			if s, ok := ParseRemoteURL(u); ok {
				repo = s
				break
			}
		}
	}

	commit, branch := "", ""
	if head, err := r.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		}
	}
	return repo, commit, branch
}

// ParseRemoteURL extracts "owner/name" from https, ssh and scp-style remote
// URLs.
func ParseRemoteURL(u string) (string, bool) {
	s := strings.TrimSpace(u)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		// drop host (and any user@)
		j := strings.Index(s, "/")
		if j < 0 {
			return "", false
		}
		s = s[j+1:]
	} else if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return "", false
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" {
		return "", false
	}
	return owner + "/" + name, true
}
