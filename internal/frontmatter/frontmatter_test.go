package frontmatter

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected map[string]string
	}{
		{
			name: "typical descriptor",
			text: "---\n" +
				"layout: theme\n" +
				"title: Drake\n" +
				"author: liangjingkanji\n" +
				"homepage: https://github.com/liangjingkanji/DrakeTyporaTheme\n" +
				"thumbnail: drake.jpg\n" +
				"---\n" +
				"# Drake\nbody text\n",
			expected: map[string]string{
				"layout":    "theme",
				"title":     "Drake",
				"author":    "liangjingkanji",
				"homepage":  "https://github.com/liangjingkanji/DrakeTyporaTheme",
				"thumbnail": "drake.jpg",
			},
		},
		{
			name:     "no opening delimiter",
			text:     "title: Drake\n---\n",
			expected: map[string]string{},
		},
		{
			name:     "empty document",
			text:     "",
			expected: map[string]string{},
		},
		{
			name: "quoted values are unwrapped",
			text: "---\ntitle: \"Night Owl\"\nauthor: 'sam'\n---\n",
			expected: map[string]string{
				"title":  "Night Owl",
				"author": "sam",
			},
		},
		{
			name: "mismatched quotes are kept",
			text: "---\ntitle: \"Night Owl'\n---\n",
			expected: map[string]string{
				"title": "\"Night Owl'",
			},
		},
		{
			name: "value keeps colons after the first",
			text: "---\nhomepage: https://github.com/a/b\n---\n",
			expected: map[string]string{
				"homepage": "https://github.com/a/b",
			},
		},
		{
			name: "colon-less lines are ignored",
			text: "---\njust some prose\ntitle: x\n\n---\n",
			expected: map[string]string{
				"title": "x",
			},
		},
		{
			name: "unterminated block reads to end of input",
			text: "---\ntitle: open\n",
			expected: map[string]string{
				"title": "open",
			},
		},
		{
			name: "whitespace around keys and values trimmed",
			text: "---\n  title  :   spaced out  \n---\n",
			expected: map[string]string{
				"title": "spaced out",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Parse(tc.text))
		})
	}
}

// Parsing the re-serialized key: value form of any parsed block yields the
// same mapping back.
func TestParseRoundTrip(t *testing.T) {
	original := "---\ntitle: Drake\nauthor: jane\ncategory: dark\n---\nbody\n"
	first := Parse(original)

	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, first[k])
	}
	b.WriteString(Delimiter + "\n")

	assert.Equal(t, first, Parse(b.String()))
}
