package check

import (
	"bytes"
	"context"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/rewrite"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

const excerptHunks = 3

// Content compares every copied upstream file with its plugin counterpart.
// Text is rewritten and normalized before comparison so formatting-only
// differences are not drift. Workflows whose skill directory does not exist
// are left to the Workflows check.
func Content(ctx context.Context, env *Env) error {
	sources, all, err := env.entries()
	if err != nil {
		return err
	}
	for _, d := range sources {
		for _, e := range all[d.ID] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !fsutil.IsDir(env.Fs, e.OutputDir) {
				continue
			}
			if err := checkEntry(env, d, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkEntry(env *Env, d source.Descriptor, e workflow.Entry) error {
	r := env.Reporter
	upstream, err := fsutil.ListFiles(env.Fs, e.UpstreamDir)
	if err != nil {
		return err
	}

	expected := make(map[string]bool, len(upstream))
	drift := 0
	for _, rel := range upstream {
		if d.SkipsContent(rel) {
			continue
		}
		expected[rel] = true
		display := path.Join(artifact.SkillsDirName, e.SkillName, rel)

		want, err := afero.ReadFile(env.Fs, filepath.Join(e.UpstreamDir, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		got, err := afero.ReadFile(env.Fs, filepath.Join(e.OutputDir, filepath.FromSlash(rel)))
		if fsutil.IsNotExist(err) {
			r.Fail("Missing: %s", display)
			drift++
			continue
		}
		if err != nil {
			return err
		}

		if !rewrite.IsTextFile(rel) {
			if !bytes.Equal(want, got) {
				r.Fail("Content drift: %s", display)
				drift++
			}
			continue
		}
		rewritten := env.Rewriter.Rewrite(string(want)).Content
		if fsutil.Normalize(rewritten) != fsutil.Normalize(string(got)) {
			r.Fail("Content drift: %s", display)
			r.Detail(excerpt(rewritten, string(got)))
			drift++
		}
	}

	plugin, err := fsutil.ListFiles(env.Fs, e.OutputDir)
	if err != nil {
		return err
	}
	for _, rel := range plugin {
		if expected[rel] {
			continue
		}
		display := path.Join(artifact.SkillsDirName, e.SkillName, rel)
		switch {
		case rel == artifact.SkillFilename || d.SkipsContentFile(path.Base(rel)):
			// authored in the plugin
		case slices.Contains(d.PluginOnlyData, e.SkillName+"/"+rel):
			r.Pass("%s (plugin-only data, expected)", display)
		case strings.HasPrefix(rel, artifact.DataDirName+"/") && isSharedTarget(d, e.SkillName):
			// covered by the Shared check
		default:
			r.Warn("Extra file in plugin: %s", display)
		}
	}

	if drift == 0 {
		r.Pass("%s: %d files match upstream", e.SkillName, len(expected))
	}
	return nil
}

func isSharedTarget(d source.Descriptor, skill string) bool {
	for _, targets := range d.SharedFileTargets {
		if slices.Contains(targets, skill) {
			return true
		}
	}
	return false
}
