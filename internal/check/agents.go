package check

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/source"
)

// upstreamAgent is one agent defined by a source. File is its *.agent.yaml,
// empty for a directory that holds none.
type upstreamAgent struct {
	Name string
	File string
}

// upstreamAgents lists the agents defined under a source's agents root:
// each subdirectory and each "*.agent.yaml" file.
func upstreamAgents(env *Env, d source.Descriptor) ([]upstreamAgent, error) {
	root := env.Layout.AgentsRoot(d)
	if d.AgentsRoot == "" || !fsutil.IsDir(env.Fs, root) {
		return nil, nil
	}
	infos, err := afero.ReadDir(env.Fs, root)
	if err != nil {
		return nil, err
	}
	var agents []upstreamAgent
	for _, info := range infos {
		switch {
		case info.IsDir():
			dir := filepath.Join(root, info.Name())
			file, err := agentFile(env.Fs, dir)
			if err != nil {
				return nil, err
			}
			agents = append(agents, upstreamAgent{Name: info.Name(), File: file})
		case strings.HasSuffix(info.Name(), artifact.AgentYAMLSuffix):
			agents = append(agents, upstreamAgent{
				Name: strings.TrimSuffix(info.Name(), artifact.AgentYAMLSuffix),
				File: filepath.Join(root, info.Name()),
			})
		}
	}
	return agents, nil
}

// agentFile finds the first *.agent.yaml in dir.
func agentFile(fsys afero.Fs, dir string) (string, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if !info.IsDir() && strings.HasSuffix(info.Name(), artifact.AgentYAMLSuffix) {
			return filepath.Join(dir, info.Name()), nil
		}
	}
	return "", nil
}

// Agents requires an agents/<name>.md for every upstream agent and flags
// plugin agents that no source defines.
func Agents(ctx context.Context, env *Env) error {
	r := env.Reporter
	sources, _, err := env.entries()
	if err != nil {
		return err
	}

	covered := make(map[string]bool)
	for _, d := range sources {
		agents, err := upstreamAgents(env, d)
		if err != nil {
			return err
		}
		for _, a := range agents {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := a.Name
			covered[name] = true
			rel := artifact.AgentsDirName + "/" + name + ".md"
			if fsutil.Exists(env.Fs, filepath.Join(env.Layout.PluginDir, filepath.FromSlash(rel))) {
				r.Pass("%s (%s)", rel, d.ID)
			} else {
				r.Fail("Missing agent: %s (%s)", rel, d.ID)
			}
		}
	}

	infos, err := afero.ReadDir(env.Fs, env.Layout.AgentsDir())
	if err != nil && !fsutil.IsNotExist(err) {
		return err
	}
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != ".md" {
			continue
		}
		name := strings.TrimSuffix(info.Name(), ".md")
		if covered[name] {
			continue
		}
		if pluginOnly(sources, name, func(d source.Descriptor) []string { return d.PluginOnlyAgents }) {
			r.Pass("agents/%s.md (plugin-only)", name)
		} else {
			r.Warn("agents/%s.md has no upstream agent (investigate)", name)
		}
	}
	return nil
}
