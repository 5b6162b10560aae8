package check

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

// Workflows cross-checks three sets of skill names: the upstream workflows
// of every available source, the plugin skill directories, and the skills
// declared by plugin.json.
func Workflows(ctx context.Context, env *Env) error {
	r := env.Reporter
	sources, all, err := env.entries()
	if err != nil {
		return err
	}

	dirs, err := skillDirs(env)
	if err != nil {
		return err
	}
	dirSet := toSet(dirs)

	manifest, found, err := env.manifest()
	if err != nil {
		return err
	}
	if !found {
		r.Fail("Missing %s", env.Layout.ManifestPath())
	}

	var declared map[string]bool
	switch {
	case !found:
	case manifest.AutoDiscoversSkills():
		r.Pass("plugin.json discovers skills from skills/")
		declared = dirSet
	default:
		declared = toSet(manifest.CommandNames())
	}

	upstream := make(map[string]bool)
	var combined []workflow.Entry
	for _, d := range sources {
		for _, e := range all[d.ID] {
			if err := ctx.Err(); err != nil {
				return err
			}
			upstream[e.SkillName] = true
			combined = append(combined, e)

			if !dirSet[e.SkillName] {
				r.Fail("Missing directory: skills/%s", e.SkillName)
			} else if e.Remapped() {
				r.Warn("%s → %s (workaround)", e.DirName, e.SkillName)
			} else {
				r.Pass("skills/%s", e.SkillName)
			}

			if found && !declared[e.SkillName] {
				r.Fail("Missing in plugin.json: %s", e.SkillName)
			}
		}
	}

	if dups := workflow.DuplicateSkills(combined); len(dups) > 0 {
		r.Fail("Skill names claimed by more than one workflow: %s", strings.Join(dups, ", "))
	}

	if found && !manifest.AutoDiscoversSkills() {
		for _, name := range dirs {
			if !declared[name] {
				r.Fail("Directory not in plugin.json: skills/%s", name)
			}
		}
		for _, name := range sortedKeys(declared) {
			if !dirSet[name] {
				r.Fail("plugin.json entry without directory: %s", name)
			}
		}
	}

	for _, name := range dirs {
		if upstream[name] {
			continue
		}
		if pluginOnly(sources, name, func(d source.Descriptor) []string { return d.PluginOnlySkills }) {
			r.Pass("skills/%s (plugin-only)", name)
		} else {
			r.Warn("skills/%s has no upstream workflow (investigate)", name)
		}
	}
	return nil
}

// skillDirs lists plugin skill directories, ignoring "_"-prefixed ones.
func skillDirs(env *Env) ([]string, error) {
	subs, err := fsutil.SubDirs(env.Fs, env.Layout.SkillsDir())
	if err != nil {
		if fsutil.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []string
	for _, s := range subs {
		if !strings.HasPrefix(s, "_") {
			dirs = append(dirs, s)
		}
	}
	return dirs, nil
}

func pluginOnly(sources []source.Descriptor, name string, list func(source.Descriptor) []string) bool {
	for _, d := range sources {
		if slices.Contains(list(d), name) {
			return true
		}
	}
	return false
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
