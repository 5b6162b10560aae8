package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffExcerpt(t *testing.T) {
	plain(t)

	out := DiffExcerpt("the cat sat", "the dog sat", 3)
	assert.Contains(t, out, "- cat")
	assert.Contains(t, out, "+ dog")

	assert.Empty(t, DiffExcerpt("same", "same", 3))
}

func TestDiffExcerpt_Limits(t *testing.T) {
	plain(t)

	out := DiffExcerpt("a1 b1 c1 d1 e1", "a2 b2 c2 d2 e2", 2)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "...", lines[2])

	long := strings.Repeat("x", 200)
	out = DiffExcerpt("", long, 1)
	assert.Contains(t, out, "…")
	assert.Less(t, len(out), 100)
}

func TestInlineDiff(t *testing.T) {
	plain(t)

	got := InlineDiff("load _bmad/x here", "load plugin/x here")
	assert.Contains(t, got, "[-")
	assert.Contains(t, got, "{+")
	assert.True(t, strings.HasPrefix(got, "load "))
	assert.True(t, strings.HasSuffix(got, "/x here"))
}
