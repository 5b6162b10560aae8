package gitsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sig = &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(1700000000, 0)}

// commit writes content to file and commits it, returning the commit hash.
func commit(t *testing.T, repo *git.Repository, dir, file, content string) plumbing.Hash {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(file)
	require.NoError(t, err)
	hash, err := wt.Commit("update "+file, &git.CommitOptions{Author: sig})
	require.NoError(t, err)
	return hash
}

// fixtureRepo has v1.0.0 (annotated), 1.1.0 (lightweight) and v2.0.0-beta.1.
func fixtureRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	h1 := commit(t, repo, dir, "VERSION", "1.0.0\n")
	_, err = repo.CreateTag("v1.0.0", h1, &git.CreateTagOptions{Tagger: sig, Message: "v1.0.0"})
	require.NoError(t, err)

	h2 := commit(t, repo, dir, "VERSION", "1.1.0\n")
	_, err = repo.CreateTag("1.1.0", h2, nil)
	require.NoError(t, err)

	h3 := commit(t, repo, dir, "VERSION", "2.0.0-beta.1\n")
	_, err = repo.CreateTag("v2.0.0-beta.1", h3, nil)
	require.NoError(t, err)

	_, err = repo.CreateTag("nightly", h3, nil)
	require.NoError(t, err)
	return dir
}

func newProvider() *Provider {
	return New("", log.New(io.Discard))
}

func TestProvider_IsRepository(t *testing.T) {
	p := newProvider()
	assert.True(t, p.IsRepository(fixtureRepo(t)))
	assert.False(t, p.IsRepository(t.TempDir()))
}

func TestProvider_CheckoutTag(t *testing.T) {
	dir := fixtureRepo(t)
	p := newProvider()
	ctx := context.Background()

	read := func() string {
		data, err := os.ReadFile(filepath.Join(dir, "VERSION"))
		require.NoError(t, err)
		return string(data)
	}

	name, err := p.CheckoutTag(ctx, dir, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", name)
	assert.Equal(t, "1.0.0\n", read(), "annotated tag resolves to its commit")

	name, err = p.CheckoutTag(ctx, dir, "v1.1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", name, "falls back to the tag without v")
	assert.Equal(t, "1.1.0\n", read())

	_, err = p.CheckoutTag(ctx, dir, "v9.9.9")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestProvider_CheckoutTag_LocalChanges(t *testing.T) {
	dir := fixtureRepo(t)
	p := newProvider()
	ctx := context.Background()
	versionFile := filepath.Join(dir, "VERSION")

	require.NoError(t, os.WriteFile(versionFile, []byte("local edit\n"), 0o644))
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	headBefore, err := repo.Head()
	require.NoError(t, err)

	_, err = p.CheckoutTag(ctx, dir, "v1.0.0")
	require.ErrorIs(t, err, ErrLocalChanges)
	assert.Contains(t, err.Error(), "VERSION")

	data, err := os.ReadFile(versionFile)
	require.NoError(t, err)
	assert.Equal(t, "local edit\n", string(data), "edit survives")
	headAfter, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, headBefore.Hash(), headAfter.Hash(), "HEAD does not move")

	// Untracked files do not block a checkout.
	require.NoError(t, os.WriteFile(versionFile, []byte("2.0.0-beta.1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("notes\n"), 0o644))
	name, err := p.CheckoutTag(ctx, dir, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", name)
	data, err = os.ReadFile(versionFile)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0\n", string(data))
}

func TestProvider_CheckoutTag_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newProvider().CheckoutTag(ctx, fixtureRepo(t), "v1.0.0")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Tags(t *testing.T) {
	tags, err := newProvider().Tags(fixtureRepo(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"v2.0.0-beta.1", "1.1.0", "v1.0.0"}, tags)

	_, err = newProvider().Tags(t.TempDir())
	assert.Error(t, err)
}

func TestProvider_Clone(t *testing.T) {
	src := fixtureRepo(t)
	dst := filepath.Join(t.TempDir(), "nested", "clone")
	p := newProvider()

	require.NoError(t, p.Clone(context.Background(), src, dst))
	assert.True(t, p.IsRepository(dst))

	name, err := p.CheckoutTag(context.Background(), dst, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", name)

	require.NoError(t, p.FetchTags(context.Background(), dst), "already up to date is not an error")
}

func TestSortTags(t *testing.T) {
	tags := []string{"v1.2.0", "1.10.0", "v1.9.0", "v1.10.0-alpha"}
	SortTags(tags)
	assert.Equal(t, []string{"1.10.0", "v1.10.0-alpha", "v1.9.0", "v1.2.0"}, tags)
	assert.Equal(t, "v1.0.0", Canonical("1.0.0"))
	assert.Equal(t, "v1.0.0", Canonical("v1.0.0"))
}
