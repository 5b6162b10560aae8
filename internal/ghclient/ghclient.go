// Package ghclient provides a GitHub API client using go-github
package ghclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/go-github/v67/github"
	"golang.org/x/mod/semver"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/bmad-plugin/bmadsync/internal/gitsource"
)

// Client wraps the go-github client
type Client struct {
	gh            *github.Client
	authenticated bool
}

// New creates a new GitHub client
// Token resolution order: GITHUB_TOKEN, GH_TOKEN, gh CLI config, unauthenticated
func New() *Client {
	token := Token()

	var httpClient *http.Client
	authenticated := false

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
		authenticated = true
	}

	return &Client{
		gh:            github.NewClient(httpClient),
		authenticated: authenticated,
	}
}

// IsAuthenticated returns true if the client has a token
func (c *Client) IsAuthenticated() bool {
	return c.authenticated
}

// Tags lists the semantic version tags of a repository, highest first.
// Tags that are not semantic versions are dropped.
func (c *Client) Tags(ctx context.Context, owner, repo string) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}
	var tags []string
	for {
		page, resp, err := c.gh.Repositories.ListTags(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags for %s/%s: %w", owner, repo, err)
		}
		for _, t := range page {
			name := t.GetName()
			if semver.IsValid(gitsource.Canonical(name)) {
				tags = append(tags, name)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	gitsource.SortTags(tags)
	return tags, nil
}

// LatestTag returns the highest semantic version tag of a repository, or ""
// when it has none.
func (c *Client) LatestTag(ctx context.Context, owner, repo string) (string, error) {
	tags, err := c.Tags(ctx, owner, repo)
	if err != nil || len(tags) == 0 {
		return "", err
	}
	return tags[0], nil
}

// PackageVersion reads the "version" field of package.json at ref.
func (c *Client) PackageVersion(ctx context.Context, owner, repo, ref string) (string, error) {
	data, err := c.GetContents(ctx, owner, repo, "package.json", &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", err
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", fmt.Errorf("failed to parse package.json: %w", err)
	}
	return pkg.Version, nil
}

// GetContents fetches a file's content from a repository
func (c *Client) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) ([]byte, error) {
	fileContent, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents: %w", err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("path is a directory, not a file")
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	return []byte(content), nil
}

// Token returns the first GitHub token found in the environment or the gh
// CLI config, or "" for unauthenticated access.
func Token() string {
	// 1. GITHUB_TOKEN env var
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}

	// 2. GH_TOKEN env var (gh CLI compat)
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token
	}

	// 3. Try gh CLI config
	if token := readGhToken(); token != "" {
		return token
	}

	// 4. Unauthenticated (60 req/hr)
	return ""
}

// ghHostsConfig represents the gh CLI hosts.yml config
type ghHostsConfig map[string]struct {
	OAuthToken string `yaml:"oauth_token"`
}

// readGhToken reads the GitHub token from gh CLI config
func readGhToken() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	// Try hosts.yml (newer gh CLI versions)
	hostsPath := filepath.Join(homeDir, ".config", "gh", "hosts.yml")
	if data, err := os.ReadFile(hostsPath); err == nil {
		var hosts ghHostsConfig
		if err := yaml.Unmarshal(data, &hosts); err == nil {
			if host, ok := hosts["github.com"]; ok && host.OAuthToken != "" {
				return host.OAuthToken
			}
		}
	}

	return ""
}
