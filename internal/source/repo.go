package source

import (
	"fmt"
	"regexp"
	"strings"
)

// Repo holds parsed upstream repository coordinates
type Repo struct {
	Owner string
	Name  string
	Ref   string // optional tag or branch from owner/repo@ref
}

var (
	// Matches owner/repo
	githubShorthand = regexp.MustCompile(`^([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)$`)

	// Matches owner/repo@ref
	githubWithRef = regexp.MustCompile(`^([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)@(.+)$`)
)

// ParseRepo parses "owner/repo" or "owner/repo@ref". Full GitHub URLs are
// accepted and reduced to the same form.
func ParseRepo(input string) (Repo, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Repo{}, fmt.Errorf("empty repository")
	}

	for _, prefix := range []string{"https://github.com/", "http://github.com/", "git@github.com:"} {
		if strings.HasPrefix(input, prefix) {
			input = strings.TrimSuffix(strings.TrimPrefix(input, prefix), ".git")
			input = strings.TrimSuffix(input, "/")
			break
		}
	}

	if matches := githubWithRef.FindStringSubmatch(input); matches != nil {
		return Repo{Owner: matches[1], Name: matches[2], Ref: matches[3]}, nil
	}
	if matches := githubShorthand.FindStringSubmatch(input); matches != nil {
		return Repo{Owner: matches[1], Name: matches[2]}, nil
	}

	return Repo{}, fmt.Errorf("unable to parse repository: %s", input)
}

// CloneURL returns the https clone URL
func (r Repo) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", r.Owner, r.Name)
}

// String returns owner/repo, with @ref when set
func (r Repo) String() string {
	s := r.Owner + "/" + r.Name
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}
