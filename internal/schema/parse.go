// Package schema parses the YAML metadata carried by skill and workflow files.
package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter returns the YAML between the leading "---" delimiters and
// the body after them. ok is false when the content has no frontmatter.
func splitFrontmatter(text string) (yamlContent, body string, ok bool) {
	// Check for frontmatter delimiter
	if !strings.HasPrefix(text, "---") {
		return "", text, false
	}

	// Find the closing delimiter
	rest := strings.TrimPrefix(text[3:], "\n")

	idx := strings.Index(rest, "\n---")
	if idx == -1 {
		return "", text, false
	}

	return rest[:idx], strings.TrimPrefix(rest[idx+4:], "\n"), true
}

// ParseFrontmatterTyped extracts YAML frontmatter into a typed struct.
// Returns the body content and any error.
func ParseFrontmatterTyped[T any](content []byte, target *T) (string, error) {
	yamlContent, body, ok := splitFrontmatter(string(content))
	if !ok {
		return body, nil
	}

	if err := yaml.Unmarshal([]byte(yamlContent), target); err != nil {
		return "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return body, nil
}

// HasFrontmatter reports whether content opens with a delimited YAML block.
func HasFrontmatter(content []byte) bool {
	_, _, ok := splitFrontmatter(string(content))
	return ok
}
