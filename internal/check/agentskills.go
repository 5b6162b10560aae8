package check

import (
	"context"
	"slices"

	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/schema"
)

// AgentSkills requires a plugin skill directory for every workflow an
// upstream agent menu points at. References covered only through a
// workaround and references to planned workflows are warnings.
func AgentSkills(ctx context.Context, env *Env) error {
	r := env.Reporter
	sources, _, err := env.entries()
	if err != nil {
		return err
	}

	dirs, err := skillDirs(env)
	if err != nil {
		return err
	}
	dirSet := toSet(dirs)

	for _, d := range sources {
		agents, err := upstreamAgents(env, d)
		if err != nil {
			return err
		}
		for _, a := range agents {
			if err := ctx.Err(); err != nil {
				return err
			}
			if a.File == "" {
				continue
			}
			data, err := afero.ReadFile(env.Fs, a.File)
			if err != nil {
				return err
			}
			workflows, err := schema.AgentWorkflows(data)
			if err != nil {
				r.Fail("[%s] %s: %v", d.ID, a.Name, err)
				continue
			}
			if len(workflows) == 0 {
				r.Pass("[%s] %s: no workflow references", d.ID, a.Name)
				continue
			}

			for _, wf := range workflows {
				skill := d.SkillName(wf)
				switch {
				case dirSet[skill] && skill != wf:
					r.Warn("[%s] %s → %s (workaround for %q)", d.ID, a.Name, skill, wf)
				case dirSet[skill]:
					r.Pass("[%s] %s → %s", d.ID, a.Name, skill)
				case slices.Contains(d.PlannedWorkflows, wf):
					r.Warn("[%s] %s references planned workflow %q", d.ID, a.Name, wf)
				default:
					r.Fail("[%s] %s references workflow %q but skills/%s does not exist", d.ID, a.Name, wf, skill)
				}
			}
		}
	}
	return nil
}
