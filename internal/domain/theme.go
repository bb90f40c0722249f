// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"regexp"
	"strings"
)

// OwnerUnknown is the placeholder owner for groups without any repository
// or author attribution.
const OwnerUnknown = "unknown"

// DefaultRepoName is the placeholder repository name for author-only groups.
const DefaultRepoName = "themes"

// Theme is one theme package as declared in a single descriptor file.
// It is immutable once built; themes are persisted only as group members.
type Theme struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	Download    string `json:"download,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	RepoOwner   string `json:"repoOwner,omitempty"`
	RepoName    string `json:"repoName,omitempty"`
}

// Group is one row of the final artifact: all themes attributed to the same
// repository, author, or standalone identity.
type Group struct {
	ID        string   `json:"id"`
	RepoOwner string   `json:"repoOwner"`
	RepoName  string   `json:"repoName"`
	Themes    []*Theme `json:"themes"`
	Stats     *Stats   `json:"stats,omitempty"`
}

// StatsEligible reports whether the group carries a real repository identity
// that a bulk stats query can be addressed to.
func (g *Group) StatsEligible() bool {
	return g.RepoOwner != OwnerUnknown &&
		!strings.HasPrefix(g.ID, "author/") &&
		!strings.HasPrefix(g.ID, "standalone/")
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// TitleFromFileName derives a fallback title from a descriptor file name:
// the extension is dropped and a Jekyll-style date prefix is stripped.
func TitleFromFileName(name string) string {
	base := strings.TrimSuffix(name, ".md")
	return datePrefix.ReplaceAllString(base, "")
}
