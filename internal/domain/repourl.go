package domain

import (
	"net/url"
	"strings"
)

// RepoRef is the canonical (owner, name) identity of a hosted repository.
type RepoRef struct {
	Owner string
	Name  string
}

// Key returns the "owner/name" form used as a group id and bulk-query key.
func (r RepoRef) Key() string {
	return r.Owner + "/" + r.Name
}

// ResolveRepoURL extracts a RepoRef from a free-text URL. Resolution is
// conservative: anything that is not clearly a github.com repository URL
// yields (zero, false) rather than a guessed identity, since the identity
// drives both grouping and the stats lookup key.
func ResolveRepoURL(raw string) (RepoRef, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RepoRef{}, false
	}
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	u, err := url.Parse(s)
	if err != nil {
		return RepoRef{}, false
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return RepoRef{}, false
	}

	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	// Deep links (releases, tree/branch, ...) keep only owner and name.
	if len(segments) < 2 {
		return RepoRef{}, false
	}
	return RepoRef{Owner: segments[0], Name: segments[1]}, true
}
