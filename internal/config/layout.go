package config

import (
	"path/filepath"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/source"
)

// Layout holds the absolute paths of the project tree
type Layout struct {
	// Root is the project root
	Root string
	// UpstreamDir holds one checkout per source
	UpstreamDir string
	// PluginDir is the generated plugin tree
	PluginDir string
}

// NewLayout resolves upstream and plugin directories against root.
func NewLayout(root, upstreamDir, pluginDir string) Layout {
	return Layout{
		Root:        root,
		UpstreamDir: resolve(root, upstreamDir),
		PluginDir:   resolve(root, pluginDir),
	}
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// SourceDir is the checkout directory of a source
func (l Layout) SourceDir(d source.Descriptor) string {
	return filepath.Join(l.UpstreamDir, d.LocalPath)
}

// ContentRoot is the workflow root inside a source checkout
func (l Layout) ContentRoot(d source.Descriptor) string {
	return filepath.Join(l.SourceDir(d), d.ContentRoot)
}

// AgentsRoot is the agent definition root inside a source checkout
func (l Layout) AgentsRoot(d source.Descriptor) string {
	return filepath.Join(l.SourceDir(d), d.AgentsRoot)
}

// VersionFile is the tracked upstream tag file of a source
func (l Layout) VersionFile(d source.Descriptor) string {
	return filepath.Join(l.Root, d.VersionFile)
}

// PackageJSON is the upstream package manifest of a source
func (l Layout) PackageJSON(d source.Descriptor) string {
	return filepath.Join(l.SourceDir(d), "package.json")
}

func (l Layout) SkillsDir() string {
	return filepath.Join(l.PluginDir, artifact.SkillsDirName)
}

func (l Layout) AgentsDir() string {
	return filepath.Join(l.PluginDir, artifact.AgentsDirName)
}

func (l Layout) SharedDir() string {
	return filepath.Join(l.PluginDir, artifact.SharedDirName)
}

func (l Layout) ManifestPath() string {
	return filepath.Join(l.PluginDir, artifact.PluginManifestPath)
}

func (l Layout) PluginVersionFile() string {
	return filepath.Join(l.Root, artifact.PluginVersionFile)
}
