// Package check validates a generated plugin tree against its upstream
// sources. Checks report through a ui.Reporter and never modify the plugin.
package check

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/config"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/rewrite"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/ui"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

// Env carries everything a check needs
type Env struct {
	Fs       afero.Fs
	Registry *source.Registry
	Layout   config.Layout
	Rewriter *rewrite.Rewriter
	Reporter *ui.Reporter
	Logger   *log.Logger

	// skipped holds the sources already reported as unavailable
	skipped map[string]bool
}

func (e *Env) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

// Check runs one validation. A returned error means the check could not run
// at all; inconsistencies are reported, not returned.
type Check struct {
	Name  string
	Title string
	Run   func(ctx context.Context, env *Env) error
}

// Checks returns the standard validations in reporting order.
func Checks() []Check {
	return []Check{
		{Name: "versions", Title: "Versions", Run: Version},
		{Name: "workflows", Title: "Workflow coverage", Run: Workflows},
		{Name: "agents", Title: "Agents", Run: Agents},
		{Name: "agent-skills", Title: "Agent skill references", Run: AgentSkills},
		{Name: "naming", Title: "Skill naming", Run: Naming},
		{Name: "content", Title: "Content", Run: Content},
		{Name: "shared", Title: "Shared files", Run: Shared},
		{Name: "paths", Title: "Unrewritten paths", Run: Paths},
	}
}

// Run executes checks in order, starting a reporter section for each. It
// stops at the first check that cannot run.
func Run(ctx context.Context, env *Env, checks []Check) error {
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return err
		}
		env.Reporter.Section(c.Title)
		if err := c.Run(ctx, env); err != nil {
			return fmt.Errorf("%s check: %w", c.Name, err)
		}
	}
	return nil
}

// entries discovers the workflows of every enabled source that is checked
// out, keyed by source id in registry order. Each unavailable source is
// warned about once per Env.
func (e *Env) entries() ([]source.Descriptor, map[string][]workflow.Entry, error) {
	var ready []source.Descriptor
	all := make(map[string][]workflow.Entry)
	for _, d := range e.Registry.Enabled() {
		if !workflow.Available(e.Fs, e.Layout, d, e.logger()) {
			e.warnSkipped(d)
			continue
		}
		entries, err := workflow.DiscoverSource(e.Fs, e.Layout, d, e.logger())
		if err != nil {
			return nil, nil, err
		}
		ready = append(ready, d)
		all[d.ID] = entries
	}
	return ready, all, nil
}

func (e *Env) warnSkipped(d source.Descriptor) {
	if e.skipped[d.ID] {
		return
	}
	if e.skipped == nil {
		e.skipped = make(map[string]bool)
	}
	e.skipped[d.ID] = true
	if !fsutil.IsDir(e.Fs, e.Layout.SourceDir(d)) {
		e.Reporter.Warn("%s: not checked out, skipped (%s)", d.ID, e.Layout.SourceDir(d))
		return
	}
	e.Reporter.Warn("%s: content root missing, skipped (%s)", d.ID, e.Layout.ContentRoot(d))
}

// manifest loads plugin.json. ok is false when the file does not exist.
func (e *Env) manifest() (*artifact.PluginManifest, bool, error) {
	data, err := afero.ReadFile(e.Fs, e.Layout.ManifestPath())
	if fsutil.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var m artifact.PluginManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", e.Layout.ManifestPath(), err)
	}
	return &m, true, nil
}
