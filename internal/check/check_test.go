package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmad-plugin/bmadsync/internal/config"
	"github.com/bmad-plugin/bmadsync/internal/contentsync"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/gitsource"
	"github.com/bmad-plugin/bmadsync/internal/rewrite"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/ui"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

const (
	upstream = "/proj/.upstream/BMAD-METHOD"
	content  = upstream + "/src/bmm/workflows"
	plugin   = "/proj/plugins/bmad"
)

func fixtureRegistry() *source.Registry {
	return source.NewRegistry(source.Descriptor{
		ID:                "core",
		LocalPath:         "BMAD-METHOD",
		VersionFile:       ".upstream-version",
		Enabled:           true,
		ContentRoot:       "src/bmm/workflows",
		AgentsRoot:        "src/bmm/agents",
		SkipDirs:          []string{"_shared"},
		SkipContentFiles:  []string{"workflow.yaml", "workflow.md", "SKILL.md"},
		Workarounds:       map[string]string{"draft-outline": "outline"},
		PluginOnlySkills:  []string{"help"},
		PluginOnlyAgents:  []string{"bmad-master"},
		PluginOnlyData:    []string{"outline/notes/extra.md"},
		SharedFileTargets: map[string][]string{"diagrams": {"create-diagram"}},
	})
}

func write(t *testing.T, fs afero.Fs, p, data string) {
	t.Helper()
	require.NoError(t, fsutil.WriteFile(fs, p, []byte(data)))
}

// fixture builds an upstream checkout and a plugin tree synced from it.
func fixture(t *testing.T) (afero.Fs, *Env, *bytes.Buffer) {
	t.Helper()
	old := ui.IsTTY
	ui.IsTTY = false
	t.Cleanup(func() { ui.IsTTY = old })

	fs := afero.NewMemMapFs()
	write(t, fs, content+"/writing/draft-outline/workflow.yaml", "name: draft-outline\n")
	write(t, fs, content+"/writing/draft-outline/template.md",
		"Say 'hello' to the reader.\n"+
			"Load {project-root}/_bmad/bmm/config.yaml first.\n"+
			"Then run {project-root}/_bmad/bmm/workflows/diagrams/create-diagram/workflow.yaml\n")
	write(t, fs, content+"/writing/draft-outline/steps/step-01.md", "Write the outline.\n")
	write(t, fs, content+"/diagrams/create-diagram/workflow.yaml", "name: create-diagram\n")
	write(t, fs, content+"/diagrams/create-diagram/instructions.md", "Draw it.\n")
	write(t, fs, content+"/diagrams/_shared/library.json", `{"shapes": ["box"]}`)
	write(t, fs, upstream+"/src/bmm/agents/pm.agent.yaml", `agent:
  metadata:
    name: pm
  menu:
    - trigger: CD
      workflow: "{project-root}/_bmad/bmm/workflows/diagrams/create-diagram/workflow.yaml"
`)
	write(t, fs, upstream+"/src/bmm/agents/architect/architect.agent.yaml", "agent: architect\n")
	write(t, fs, upstream+"/package.json", `{"name": "bmad-method", "version": "6.0.0"}`)
	write(t, fs, "/proj/.upstream-version", "v6.0.0\n")
	write(t, fs, "/proj/.plugin-version", "v6.0.0.3\n")

	logger := log.New(io.Discard)
	layout := config.NewLayout("/proj", ".upstream", "plugins/bmad")
	reg := fixtureRegistry()
	m, err := workflow.BuildMap(fs, reg, layout, logger)
	require.NoError(t, err)
	rw := rewrite.New(m, rewrite.DefaultOptions())

	s := &contentsync.Syncer{Fs: fs, Registry: reg, Layout: layout, Rewriter: rw, Logger: logger}
	_, err = s.SyncAll(context.Background())
	require.NoError(t, err)

	write(t, fs, plugin+"/.claude-plugin/plugin.json", `{
  "name": "bmad",
  "version": "6.0.0.3",
  "commands": ["./skills/outline/", "./skills/create-diagram/", "./skills/help/"]
}`)
	write(t, fs, plugin+"/skills/outline/SKILL.md", "---\nname: bmad-outline\ndescription: Outline\n---\n")
	write(t, fs, plugin+"/skills/outline/notes/extra.md", "plugin notes\n")
	write(t, fs, plugin+"/skills/create-diagram/SKILL.md", "---\nname: bmad-create-diagram\n---\n")
	write(t, fs, plugin+"/skills/help/SKILL.md", "---\nname: bmad-help\n---\n")
	write(t, fs, plugin+"/skills/_shared/README.md", "shared notes\n")
	write(t, fs, plugin+"/agents/pm.md", "# PM\n")
	write(t, fs, plugin+"/agents/architect.md", "# Architect\n")
	write(t, fs, plugin+"/agents/bmad-master.md", "# Master\n")

	var out bytes.Buffer
	env := &Env{
		Fs:       fs,
		Registry: reg,
		Layout:   layout,
		Rewriter: rw,
		Reporter: ui.NewReporter(&out, true),
		Logger:   logger,
	}
	return fs, env, &out
}

func run(t *testing.T, env *Env, c func(context.Context, *Env) error) {
	t.Helper()
	require.NoError(t, c(context.Background(), env))
}

func TestRun_Consistent(t *testing.T) {
	_, env, out := fixture(t)

	require.NoError(t, Run(context.Background(), env, Checks()))

	assert.Empty(t, env.Reporter.Failures(), out.String())
	assert.Equal(t, []string{"draft-outline → outline (workaround)"}, env.Reporter.Warnings())
	assert.Contains(t, out.String(), "outline/notes/extra.md (plugin-only data, expected)")
	assert.Contains(t, out.String(), "skills/help (plugin-only)")
}

func TestRun_SkippedSources(t *testing.T) {
	fs, env, _ := fixture(t)
	env.Registry = env.Registry.With(source.Descriptor{ID: "tea", Alias: "tea", LocalPath: "bmad-tea", ContentRoot: "src/workflows/testarch", Flat: true, Enabled: true})
	env.Registry = env.Registry.With(source.Descriptor{ID: "cis", Alias: "cis", LocalPath: "bmad-cis", ContentRoot: "src/workflows", Flat: true, Enabled: true})
	write(t, fs, "/proj/.upstream/bmad-cis/README.md", "no workflows here\n")

	require.NoError(t, Run(context.Background(), env, Checks()))

	assert.Empty(t, env.Reporter.Failures())
	assert.Equal(t, []string{
		"tea: not checked out, skipped (/proj/.upstream/bmad-tea)",
		"cis: content root missing, skipped (/proj/.upstream/bmad-cis/src/workflows)",
		"draft-outline → outline (workaround)",
	}, env.Reporter.Warnings(), "each skipped source is reported once")
}

func TestRun_Cancelled(t *testing.T) {
	_, env, _ := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Run(ctx, env, Checks()), context.Canceled)
}

func TestContent_NormalizedComparison(t *testing.T) {
	fs, env, _ := fixture(t)
	p := plugin + "/skills/outline/template.md"

	data, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	reformatted := strings.ReplaceAll(string(data), "'", `"`)
	reformatted = strings.ReplaceAll(reformatted, "\n", "  \n\n")
	write(t, fs, p, reformatted)

	run(t, env, Content)
	assert.Empty(t, env.Reporter.Failures(), "whitespace and quote style are not drift")

	write(t, fs, p, strings.Replace(string(data), "reader", "writer", 1))
	run(t, env, Content)
	assert.Equal(t, []string{"Content drift: skills/outline/template.md"}, env.Reporter.Failures())
}

func TestContent_MissingAndExtra(t *testing.T) {
	fs, env, _ := fixture(t)
	require.NoError(t, fs.Remove(plugin+"/skills/outline/steps/step-01.md"))
	write(t, fs, plugin+"/skills/outline/stray.md", "left over\n")

	run(t, env, Content)
	assert.Equal(t, []string{"Missing: skills/outline/steps/step-01.md"}, env.Reporter.Failures())
	assert.Equal(t, []string{"Extra file in plugin: skills/outline/stray.md"}, env.Reporter.Warnings())
}

func TestContent_BinaryDrift(t *testing.T) {
	fs, env, _ := fixture(t)
	write(t, fs, content+"/writing/draft-outline/logo.png", "\x89PNG one")
	write(t, fs, plugin+"/skills/outline/logo.png", "\x89PNG two")

	run(t, env, Content)
	assert.Equal(t, []string{"Content drift: skills/outline/logo.png"}, env.Reporter.Failures())
}

func TestContent_SkipsMissingSkillDir(t *testing.T) {
	fs, env, _ := fixture(t)
	require.NoError(t, fs.RemoveAll(plugin+"/skills/create-diagram"))

	run(t, env, Content)
	assert.Empty(t, env.Reporter.Failures())
}

func TestShared(t *testing.T) {
	fs, env, _ := fixture(t)
	write(t, fs, plugin+"/skills/create-diagram/data/library.json", `{"shapes": ["circle"]}`)
	require.NoError(t, fs.Remove(plugin+"/_shared/library.json"))

	run(t, env, Shared)
	assert.Equal(t, []string{
		"Missing shared file: _shared/library.json",
		"Shared file drift: skills/create-diagram/data/library.json",
	}, env.Reporter.Failures())
}

func TestShared_MissingUpstream(t *testing.T) {
	fs, env, _ := fixture(t)
	require.NoError(t, fs.RemoveAll(content+"/diagrams/_shared"))

	run(t, env, Shared)
	assert.Equal(t, []string{"Upstream shared directory missing: core/diagrams/_shared"}, env.Reporter.Failures())
}

func TestWorkflows(t *testing.T) {
	fs, env, _ := fixture(t)
	require.NoError(t, fs.RemoveAll(plugin+"/skills/create-diagram"))
	write(t, fs, plugin+"/skills/mystery/SKILL.md", "---\nname: bmad-mystery\n---\n")

	run(t, env, Workflows)
	assert.Equal(t, []string{
		"Missing directory: skills/create-diagram",
		"Directory not in plugin.json: skills/mystery",
		"plugin.json entry without directory: create-diagram",
	}, env.Reporter.Failures())
	assert.Contains(t, env.Reporter.Warnings(), "skills/mystery has no upstream workflow (investigate)")
}

func TestWorkflows_Manifest(t *testing.T) {
	fs, env, _ := fixture(t)
	write(t, fs, plugin+"/.claude-plugin/plugin.json", `{"name": "bmad", "commands": ["./skills/outline/"]}`)

	run(t, env, Workflows)
	assert.Equal(t, []string{
		"Missing in plugin.json: create-diagram",
		"Directory not in plugin.json: skills/create-diagram",
		"Directory not in plugin.json: skills/help",
	}, env.Reporter.Failures())
}

func TestWorkflows_AutoDiscovery(t *testing.T) {
	fs, env, _ := fixture(t)
	write(t, fs, plugin+"/.claude-plugin/plugin.json", `{"name": "bmad", "skills": "./skills/"}`)
	write(t, fs, plugin+"/skills/mystery/SKILL.md", "---\nname: bmad-mystery\n---\n")

	run(t, env, Workflows)
	assert.Empty(t, env.Reporter.Failures())
}

func TestWorkflows_MissingManifest(t *testing.T) {
	fs, env, _ := fixture(t)
	require.NoError(t, fs.Remove(plugin+"/.claude-plugin/plugin.json"))

	run(t, env, Workflows)
	assert.Equal(t, []string{"Missing " + plugin + "/.claude-plugin/plugin.json"}, env.Reporter.Failures())
}

func TestWorkflows_DuplicateSkills(t *testing.T) {
	_, env, _ := fixture(t)
	core := env.Registry.Core()
	core.Workarounds = map[string]string{"draft-outline": "create-diagram"}
	env.Registry = env.Registry.With(core)

	run(t, env, Workflows)
	assert.Contains(t, env.Reporter.Failures(), "Skill names claimed by more than one workflow: create-diagram")
}

func TestAgents(t *testing.T) {
	fs, env, _ := fixture(t)
	require.NoError(t, fs.Remove(plugin+"/agents/pm.md"))
	write(t, fs, plugin+"/agents/rogue.md", "# Rogue\n")

	run(t, env, Agents)
	assert.Equal(t, []string{"Missing agent: agents/pm.md (core)"}, env.Reporter.Failures())
	assert.Equal(t, []string{"agents/rogue.md has no upstream agent (investigate)"}, env.Reporter.Warnings())
}

func TestAgentSkills(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		_, env, out := fixture(t)
		run(t, env, AgentSkills)
		assert.Empty(t, env.Reporter.Failures())
		assert.Empty(t, env.Reporter.Warnings())
		assert.Contains(t, out.String(), "[core] pm → create-diagram")
		assert.Contains(t, out.String(), "[core] architect: no workflow references")
	})

	t.Run("missing, workaround and planned", func(t *testing.T) {
		fs, env, _ := fixture(t)
		core := env.Registry.Core()
		core.PlannedWorkflows = []string{"create-ux"}
		env.Registry = env.Registry.With(core)
		write(t, fs, upstream+"/src/bmm/agents/architect/architect.agent.yaml", `agent:
  menu:
    - exec: "{project-root}/_bmad/bmm/workflows/writing/draft-outline/workflow.yaml"
    - exec: "{project-root}/_bmad/bmm/workflows/design/create-ux/workflow.md"
    - workflow: "{project-root}/_bmad/bmm/workflows/plan/create-prd/workflow.md"
    - workflow: "{project-root}/_bmad/bmm/workflows/plan/create-prd/workflow.md"
`)

		run(t, env, AgentSkills)
		assert.Equal(t, []string{
			`[core] architect references workflow "create-prd" but skills/create-prd does not exist`,
		}, env.Reporter.Failures())
		assert.Equal(t, []string{
			`[core] architect → outline (workaround for "draft-outline")`,
			`[core] architect references planned workflow "create-ux"`,
		}, env.Reporter.Warnings())
	})

	t.Run("invalid definition", func(t *testing.T) {
		fs, env, _ := fixture(t)
		write(t, fs, upstream+"/src/bmm/agents/pm.agent.yaml", "agent: [broken\n")
		run(t, env, AgentSkills)
		require.Len(t, env.Reporter.Failures(), 1)
		assert.Contains(t, env.Reporter.Failures()[0], "[core] pm: failed to parse agent definition")
	})
}

func TestNaming(t *testing.T) {
	fs, env, _ := fixture(t)
	write(t, fs, plugin+"/skills/outline/SKILL.md", "---\nname: outline\n---\n")
	write(t, fs, plugin+"/skills/help/SKILL.md", "---\ndescription: no name\n---\n")

	run(t, env, Naming)
	assert.Equal(t, []string{
		"skills/help/SKILL.md: missing name (want bmad-help)",
		`skills/outline/SKILL.md: name "outline", want "bmad-outline"`,
	}, env.Reporter.Failures())
}

func TestPaths(t *testing.T) {
	fs, env, out := fixture(t)
	write(t, fs, plugin+"/skills/outline/leftover.md",
		"See {project-root}/_bmad/bmm/workflows/nowhere/steps.md\n"+
			"Memory {project-root}/_bmad/bmm/_memory/notes.md\n"+
			"Example {project-root}/_bmad/foo/bar.md\n")
	write(t, fs, plugin+"/skills/help/unknown.md", "Odd {project-root}/_bmad/bmm/docs/readme.md\n")

	run(t, env, Paths)
	assert.Equal(t, []string{"2 unrewritten references in 2 files"}, env.Reporter.Warnings())
	assert.Contains(t, out.String(), "skills/help/unknown.md")
	assert.Contains(t, out.String(), "skills/outline/leftover.md")
}

func TestPaths_ListLimit(t *testing.T) {
	fs, env, out := fixture(t)
	for _, name := range strings.Split("a b c d e f g h i j k l", " ") {
		write(t, fs, plugin+"/skills/help/"+name+".md", "{project-root}/_bmad/bmm/unknown/x.md\n")
	}

	run(t, env, Paths)
	assert.Equal(t, []string{"12 unrewritten references in 12 files"}, env.Reporter.Warnings())
	assert.Contains(t, out.String(), "... and 2 more")
	assert.NotContains(t, out.String(), "skills/help/l.md")
}

func TestVersion(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		_, env, _ := fixture(t)
		run(t, env, Version)
		assert.Empty(t, env.Reporter.Failures())
	})

	t.Run("package.json mismatch", func(t *testing.T) {
		fs, env, _ := fixture(t)
		write(t, fs, upstream+"/package.json", `{"version": "6.1.0"}`)
		run(t, env, Version)
		assert.Equal(t, []string{".upstream-version is v6.0.0 but package.json says 6.1.0"}, env.Reporter.Failures())
	})

	t.Run("plugin version", func(t *testing.T) {
		fs, env, _ := fixture(t)
		write(t, fs, "/proj/.plugin-version", "v6.0.0-3\n")
		run(t, env, Version)
		assert.Equal(t, []string{`.plugin-version is "v6.0.0-3", want v6.0.0.<n>`}, env.Reporter.Failures())
	})

	t.Run("missing version file", func(t *testing.T) {
		fs, env, _ := fixture(t)
		require.NoError(t, fs.Remove("/proj/.upstream-version"))
		run(t, env, Version)
		assert.Equal(t, []string{"Missing version file: .upstream-version"}, env.Reporter.Failures())
	})

	t.Run("non-core empty", func(t *testing.T) {
		fs, env, _ := fixture(t)
		env.Registry = env.Registry.With(source.Descriptor{ID: "tea", LocalPath: "bmad-tea", VersionFile: ".upstream-version-tea", Enabled: true})
		write(t, fs, "/proj/.upstream-version-tea", "\n")
		run(t, env, Version)
		assert.Empty(t, env.Reporter.Failures())
		assert.Equal(t, []string{".upstream-version-tea is empty"}, env.Reporter.Warnings())
	})

	t.Run("non-core tags", func(t *testing.T) {
		for tag, warn := range map[string]bool{"v1.2.0": false, "1.2.0": false, "1.2.0-beta.1": false, "latest": true} {
			fs, env, out := fixture(t)
			env.Registry = env.Registry.With(source.Descriptor{ID: "tea", LocalPath: "bmad-tea", VersionFile: ".upstream-version-tea", Enabled: true})
			write(t, fs, "/proj/.upstream-version-tea", tag+"\n")
			run(t, env, Version)
			assert.Empty(t, env.Reporter.Failures(), tag)
			if warn {
				assert.Equal(t, []string{`.upstream-version-tea: "latest" is not a semantic version tag`}, env.Reporter.Warnings())
			} else {
				assert.Empty(t, env.Reporter.Warnings(), tag)
				assert.Contains(t, out.String(), "tea tracks "+tag)
			}
		}
	})
}

type fakeGit struct {
	repos   map[string]bool
	tags    map[string]string
	errs    map[string]error
	fetched []string
}

func (f *fakeGit) IsRepository(dir string) bool { return f.repos[dir] }

func (f *fakeGit) FetchTags(_ context.Context, dir string) error {
	f.fetched = append(f.fetched, dir)
	return assert.AnError
}

func (f *fakeGit) CheckoutTag(_ context.Context, dir, tag string) (string, error) {
	if err := f.errs[dir]; err != nil {
		return "", err
	}
	for _, name := range []string{tag, strings.TrimPrefix(tag, "v")} {
		if f.tags[dir+"@"+name] != "" {
			return name, nil
		}
	}
	return "", gitsource.ErrTagNotFound
}

func TestCheckout(t *testing.T) {
	t.Run("tag without v", func(t *testing.T) {
		_, env, out := fixture(t)
		git := &fakeGit{
			repos: map[string]bool{upstream: true},
			tags:  map[string]string{upstream + "@6.0.0": "abc123"},
		}
		run(t, env, Checkout(git))
		assert.Empty(t, env.Reporter.Failures())
		assert.Empty(t, env.Reporter.Warnings())
		assert.Equal(t, []string{upstream}, git.fetched, "fetch failures are tolerated")
		assert.Contains(t, out.String(), "core at 6.0.0")
	})

	t.Run("missing tag", func(t *testing.T) {
		_, env, _ := fixture(t)
		run(t, env, Checkout(&fakeGit{repos: map[string]bool{upstream: true}}))
		assert.Equal(t, []string{"core: tag missing: v6.0.0"}, env.Reporter.Warnings())
	})

	t.Run("no checkout", func(t *testing.T) {
		_, env, _ := fixture(t)
		run(t, env, Checkout(&fakeGit{}))
		assert.Equal(t, []string{"core: no git checkout at " + upstream}, env.Reporter.Failures())
	})

	teaDir := "/proj/.upstream/bmad-tea"
	withTea := func(t *testing.T) (*Env, *bytes.Buffer) {
		fs, env, out := fixture(t)
		env.Registry = env.Registry.With(source.Descriptor{ID: "tea", LocalPath: "bmad-tea", VersionFile: ".upstream-version-tea", Enabled: true})
		write(t, fs, "/proj/.upstream-version-tea", "v1.0.0\n")
		return env, out
	}

	t.Run("local changes", func(t *testing.T) {
		env, out := withTea(t)
		git := &fakeGit{
			repos: map[string]bool{upstream: true, teaDir: true},
			tags:  map[string]string{teaDir + "@v1.0.0": "def456"},
			errs:  map[string]error{upstream: fmt.Errorf("%w: %s (VERSION)", gitsource.ErrLocalChanges, upstream)},
		}
		run(t, env, Checkout(git))
		assert.Empty(t, env.Reporter.Failures())
		require.Len(t, env.Reporter.Warnings(), 1)
		assert.Contains(t, env.Reporter.Warnings()[0], "core: not checked out to v6.0.0")
		assert.Contains(t, env.Reporter.Warnings()[0], "local changes")
		assert.Contains(t, out.String(), "tea at v1.0.0", "later sources still run")
	})

	t.Run("checkout error", func(t *testing.T) {
		env, out := withTea(t)
		git := &fakeGit{
			repos: map[string]bool{upstream: true, teaDir: true},
			tags:  map[string]string{teaDir + "@v1.0.0": "def456"},
			errs:  map[string]error{upstream: errors.New("index.lock exists")},
		}
		run(t, env, Checkout(git))
		assert.Equal(t, []string{"core: checkout of v6.0.0 failed: index.lock exists"}, env.Reporter.Failures())
		assert.Contains(t, out.String(), "tea at v1.0.0")
	})
}
