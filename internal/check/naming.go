package check

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/schema"
)

// Naming requires every skills/<dir>/SKILL.md to declare name "bmad-<dir>".
func Naming(ctx context.Context, env *Env) error {
	r := env.Reporter
	dirs, err := skillDirs(env)
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(env.Layout.SkillsDir(), dir, artifact.SkillFilename)
		data, err := afero.ReadFile(env.Fs, p)
		if fsutil.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}

		want := artifact.SkillNamePrefix + dir
		skill, err := schema.ParseSkill(data)
		switch {
		case err != nil:
			r.Fail("skills/%s/%s: %v", dir, artifact.SkillFilename, err)
		case skill.Name == "":
			r.Fail("skills/%s/%s: missing name (want %s)", dir, artifact.SkillFilename, want)
		case skill.Name != want:
			r.Fail("skills/%s/%s: name %q, want %q", dir, artifact.SkillFilename, skill.Name, want)
		default:
			r.Pass("skills/%s: %s", dir, want)
		}
	}
	return nil
}
