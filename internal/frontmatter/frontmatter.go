// Package frontmatter parses the delimited key-value metadata block at the
// head of a theme descriptor file.
//
// The format is deliberately looser than YAML: each line between the two
// delimiter lines is split at its first colon, both halves are trimmed, and a
// value wholly wrapped in a single matching pair of quotes has the quotes
// stripped. There are no multi-line values, nested structures, or escape
// sequences, matching the simplicity of the source format.
package frontmatter

import (
	"bufio"
	"strings"
)

// Delimiter is the line that opens and closes a front-matter block.
const Delimiter = "---"

// Parse extracts the front-matter fields of text. A document that does not
// open with the delimiter line yields an empty map, never an error: callers
// treat "no title" as "untitled".
func Parse(text string) map[string]string {
	fields := map[string]string{}

	scanner := bufio.NewScanner(strings.NewReader(text))
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != Delimiter {
		return fields
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == Delimiter {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fields[key] = unquote(strings.TrimSpace(value))
	}
	return fields
}

// unquote strips one wrapping pair of double or single quotes, if present.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
