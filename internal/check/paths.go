package check

import (
	"context"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/rewrite"
)

const maxListedFiles = 10

// placeholderAliases appear in upstream prose as examples, not references.
var placeholderAliases = map[string]bool{"foo": true}

// Paths warns about plugin skill files that still hold marker references the
// rewriter would act on. Deferred references and placeholders are expected.
func Paths(ctx context.Context, env *Env) error {
	r := env.Reporter
	opts := env.Rewriter.Options()

	files, err := fsutil.ListFiles(env.Fs, env.Layout.SkillsDir())
	if err != nil {
		return err
	}

	var flagged []string
	refs := 0
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !rewrite.IsTextFile(rel) {
			continue
		}
		data, err := afero.ReadFile(env.Fs, filepath.Join(env.Layout.SkillsDir(), filepath.FromSlash(rel)))
		if err != nil {
			return err
		}

		n := 0
		for _, ref := range rewrite.Scan(string(data), opts.Marker) {
			if placeholderAliases[ref.Alias] {
				continue
			}
			if env.Rewriter.Classify(ref.Alias, ref.Remainder) == rewrite.KindDeferred {
				continue
			}
			n++
		}
		if n > 0 {
			refs += n
			flagged = append(flagged, path.Join(artifact.SkillsDirName, rel))
		}
	}

	if len(flagged) == 0 {
		r.Pass("No unrewritten references in %s/", artifact.SkillsDirName)
		return nil
	}
	r.Warn("%d unrewritten references in %d files", refs, len(flagged))
	for i, f := range flagged {
		if i == maxListedFiles {
			r.Info("... and %d more", len(flagged)-maxListedFiles)
			break
		}
		r.Info("%s", f)
	}
	return nil
}
