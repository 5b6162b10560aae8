// Package gitsource manages the local git checkouts of upstream sources.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/mod/semver"
)

var (
	// ErrTagNotFound means neither "vX.Y.Z" nor "X.Y.Z" exists in a repository.
	ErrTagNotFound = errors.New("tag not found")

	// ErrLocalChanges means a checkout was refused because tracked files
	// were modified. Untracked files do not count.
	ErrLocalChanges = errors.New("checkout has local changes")
)

// Provider clones, fetches and checks out source repositories.
type Provider struct {
	Logger *log.Logger

	// auth is nil for anonymous access
	auth transport.AuthMethod
}

// New returns a Provider authenticating over HTTPS with token when it is
// non-empty.
func New(token string, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Default()
	}
	p := &Provider{Logger: logger}
	if token != "" {
		p.auth = &http.BasicAuth{
			Username: "x-access-token",
			Password: token,
		}
	}
	return p
}

// IsRepository reports whether dir holds a git repository.
func (p *Provider) IsRepository(dir string) bool {
	_, err := git.PlainOpen(dir)
	return err == nil
}

// Clone clones url into dir, creating parent directories.
func (p *Provider) Clone(ctx context.Context, url, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	p.Logger.Info("cloning", "url", url, "dir", dir)
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Auth: p.auth,
		Tags: git.AllTags,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}

// FetchTags fetches every tag from origin. Being up to date is not an error.
func (p *Provider) FetchTags(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		Auth:  p.auth,
		Tags:  git.AllTags,
		Force: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// CheckoutTag checks out tag in dir with a detached HEAD, falling back to the
// tag without its "v" prefix. It returns the tag name that resolved. A
// checkout with modified tracked files is left alone and ErrLocalChanges is
// returned.
func (p *Provider) CheckoutTag(ctx context.Context, dir, tag string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", dir, err)
	}

	name, hash, err := findTag(repo, tag)
	if err != nil {
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	modified, err := localChanges(worktree)
	if err != nil {
		return "", fmt.Errorf("failed to read status of %s: %w", dir, err)
	}
	if len(modified) > 0 {
		return "", fmt.Errorf("%w: %s (%s)", ErrLocalChanges, dir, strings.Join(modified, ", "))
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		if errors.Is(err, git.ErrUnstagedChanges) {
			return "", fmt.Errorf("%w: %s", ErrLocalChanges, dir)
		}
		return "", fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	p.Logger.Debug("checked out", "dir", dir, "tag", name, "commit", hash.String()[:7])
	return name, nil
}

// localChanges lists tracked files that are modified, staged or deleted,
// sorted. go-git moves HEAD before it refuses a dirty checkout, so this runs
// first.
func localChanges(worktree *git.Worktree) ([]string, error) {
	status, err := worktree.Status()
	if err != nil {
		return nil, err
	}
	var files []string
	for file, st := range status {
		if st.Worktree == git.Untracked && st.Staging == git.Untracked {
			continue
		}
		if st.Worktree != git.Unmodified || st.Staging != git.Unmodified {
			files = append(files, file)
		}
	}
	sort.Strings(files)
	return files, nil
}

// findTag resolves tag, then tag without "v", to the commit it points at.
func findTag(repo *git.Repository, tag string) (string, plumbing.Hash, error) {
	names := []string{tag}
	if noV, found := strings.CutPrefix(tag, "v"); found {
		names = append(names, noV)
	}

	for _, name := range names {
		ref, err := repo.Reference(plumbing.NewTagReferenceName(name), true)
		if err != nil {
			continue
		}
		// Annotated tags point at a tag object, not the commit.
		if obj, err := repo.TagObject(ref.Hash()); err == nil {
			return name, obj.Target, nil
		}
		return name, ref.Hash(), nil
	}
	return "", plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
}

// Tags lists the semantic version tags of the repository in dir, highest
// first. Tags without a "v" prefix are compared as if they had one.
func (p *Provider) Tags(dir string) ([]string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dir, err)
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, err
	}
	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if semver.IsValid(Canonical(name)) {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortTags(tags)
	return tags, nil
}

// Canonical adds the "v" prefix semver expects when tag lacks it.
func Canonical(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}

// SortTags orders semantic version tags highest first.
func SortTags(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		return semver.Compare(Canonical(tags[i]), Canonical(tags[j])) > 0
	})
}
