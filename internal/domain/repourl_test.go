package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRepoURL(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected RepoRef
		ok       bool
	}{
		{
			name:     "plain repository url",
			input:    "https://github.com/owner/repo",
			expected: RepoRef{Owner: "owner", Name: "repo"},
			ok:       true,
		},
		{
			name:     "git suffix and trailing slash",
			input:    "https://github.com/owner/repo.git/",
			expected: RepoRef{Owner: "owner", Name: "repo"},
			ok:       true,
		},
		{
			name:     "www subdomain alias",
			input:    "https://www.github.com/owner/repo",
			expected: RepoRef{Owner: "owner", Name: "repo"},
			ok:       true,
		},
		{
			name:     "deep link to a release tag",
			input:    "https://github.com/owner/repo/releases/tag/v1.2.3",
			expected: RepoRef{Owner: "owner", Name: "repo"},
			ok:       true,
		},
		{
			name:     "surrounding whitespace",
			input:    "  https://github.com/owner/repo  ",
			expected: RepoRef{Owner: "owner", Name: "repo"},
			ok:       true,
		},
		{
			name:  "foreign host",
			input: "https://gitlab.com/owner/repo",
			ok:    false,
		},
		{
			name:  "owner only",
			input: "https://github.com/owner",
			ok:    false,
		},
		{
			name:  "empty input",
			input: "",
			ok:    false,
		},
		{
			name:  "not a url at all",
			input: "://bad",
			ok:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, ok := ResolveRepoURL(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, ref)
			} else {
				assert.Equal(t, RepoRef{}, ref)
			}
		})
	}
}

func TestTitleFromFileName(t *testing.T) {
	assert.Equal(t, "Drake", TitleFromFileName("2019-09-10-Drake.md"))
	assert.Equal(t, "plain", TitleFromFileName("plain.md"))
	assert.Equal(t, "no-extension", TitleFromFileName("no-extension"))
}

func TestGroupStatsEligible(t *testing.T) {
	assert.True(t, (&Group{ID: "acme/theme-x", RepoOwner: "acme"}).StatsEligible())
	assert.False(t, (&Group{ID: "author/jane", RepoOwner: "jane"}).StatsEligible())
	assert.False(t, (&Group{ID: "standalone/foo", RepoOwner: OwnerUnknown}).StatsEligible())
}
