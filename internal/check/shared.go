package check

import (
	"context"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/ui"
)

// Shared verifies that every upstream "<category>/_shared" file is present
// and identical in the plugin _shared directory and in the data directory of
// each target skill.
func Shared(ctx context.Context, env *Env) error {
	r := env.Reporter
	sources, _, err := env.entries()
	if err != nil {
		return err
	}

	for _, d := range sources {
		categories := make([]string, 0, len(d.SharedFileTargets))
		for c := range d.SharedFileTargets {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		for _, category := range categories {
			if err := ctx.Err(); err != nil {
				return err
			}
			upstream := filepath.Join(env.Layout.ContentRoot(d), category, artifact.SharedDirName)
			if !fsutil.IsDir(env.Fs, upstream) {
				r.Fail("Upstream shared directory missing: %s/%s/%s", d.ID, category, artifact.SharedDirName)
				continue
			}
			files, err := fsutil.ListFiles(env.Fs, upstream)
			if err != nil {
				return err
			}

			for _, rel := range files {
				want, err := afero.ReadFile(env.Fs, filepath.Join(upstream, filepath.FromSlash(rel)))
				if err != nil {
					return err
				}
				copies := []string{path.Join(artifact.SharedDirName, rel)}
				for _, skill := range d.SharedFileTargets[category] {
					copies = append(copies, path.Join(artifact.SkillsDirName, skill, artifact.DataDirName, rel))
				}

				ok := true
				for _, c := range copies {
					got, err := afero.ReadFile(env.Fs, filepath.Join(env.Layout.PluginDir, filepath.FromSlash(c)))
					if fsutil.IsNotExist(err) {
						r.Fail("Missing shared file: %s", c)
						ok = false
						continue
					}
					if err != nil {
						return err
					}
					if fsutil.Normalize(string(want)) != fsutil.Normalize(string(got)) {
						r.Fail("Shared file drift: %s", c)
						r.Detail(excerpt(string(want), string(got)))
						ok = false
					}
				}
				if ok {
					r.Pass("%s/%s in sync (%d copies)", category, rel, len(copies))
				}
			}
		}
	}
	return nil
}

func excerpt(want, got string) string {
	return ui.DiffExcerpt(want, got, excerptHunks)
}
