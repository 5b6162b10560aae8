package ui

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const excerptWidth = 60

// DiffExcerpt renders up to maxHunks differing fragments between want and
// got, one per line, prefixed "-" for text only in want and "+" for text only
// in got. Long fragments are cut to keep the excerpt readable.
func DiffExcerpt(want, got string, maxHunks int) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	hunks := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		if hunks == maxHunks {
			b.WriteString("...\n")
			break
		}
		hunks++
		text := clip(strings.ReplaceAll(d.Text, "\n", `\n`), excerptWidth)
		if d.Type == diffmatchpatch.DiffDelete {
			b.WriteString("- " + Render(Deleted, text) + "\n")
		} else {
			b.WriteString("+ " + Render(Inserted, text) + "\n")
		}
	}
	return b.String()
}

// InlineDiff renders the full text of got with deletions and insertions
// against want marked inline.
func InlineDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			if IsTTY {
				b.WriteString(Deleted.Render(d.Text))
			} else {
				b.WriteString("[-" + d.Text + "-]")
			}
		case diffmatchpatch.DiffInsert:
			if IsTTY {
				b.WriteString(Inserted.Render(d.Text))
			} else {
				b.WriteString("{+" + d.Text + "+}")
			}
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
