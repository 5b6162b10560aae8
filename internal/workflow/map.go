package workflow

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/config"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/source"
)

// Module is the lookup table for one module alias
type Module struct {
	// Names maps upstream workflow names to skill names
	Names map[string]string
	// Prefix holds the segments between "workflows/" and the workflow name
	Prefix []string
	// Categorized modules may address workflows as category/workflow
	Categorized bool
	// Owner is the source id that registered the module
	Owner string
}

// Map resolves (module alias, workflow name) to a skill name. It is read-only
// once built.
type Map struct {
	modules map[string]*Module
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{modules: make(map[string]*Module)}
}

// Lookup returns the skill name for a workflow under alias.
func (m *Map) Lookup(alias, name string) (string, bool) {
	mod, ok := m.modules[alias]
	if !ok {
		return "", false
	}
	skill, ok := mod.Names[name]
	return skill, ok
}

// Module returns the module registered for alias.
func (m *Map) Module(alias string) (*Module, bool) {
	mod, ok := m.modules[alias]
	return mod, ok
}

// Aliases returns the registered aliases, sorted.
func (m *Map) Aliases() []string {
	aliases := make([]string, 0, len(m.modules))
	for a := range m.modules {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// Len returns the number of (alias, name) pairs.
func (m *Map) Len() int {
	n := 0
	for _, mod := range m.modules {
		n += len(mod.Names)
	}
	return n
}

// Add registers a module, replacing any existing one with the same alias.
// Intended for building fixtures; BuildMap is the normal constructor.
func (m *Map) Add(alias string, mod *Module) {
	if mod.Names == nil {
		mod.Names = make(map[string]string)
	}
	m.modules[alias] = mod
}

func (m *Map) ensure(alias string, proto Module) *Module {
	if mod, ok := m.modules[alias]; ok {
		return mod
	}
	proto.Names = make(map[string]string)
	m.modules[alias] = &proto
	return &proto
}

// claim records name → skill unless another source already owns the pair.
func (m *Map) claim(mod *Module, alias, name, skill, owner string, logger *log.Logger) {
	if existing, ok := mod.Names[name]; ok {
		if existing != skill || mod.Owner != owner {
			logger.Warn("workflow claimed twice, keeping first",
				"alias", alias, "workflow", name, "kept", existing, "ignored", skill, "source", owner)
		}
		return
	}
	mod.Names[name] = skill
}

// BuildMap discovers every enabled source, plus each source's special roots,
// into one Map. Cross-source references need all sources even when only one
// is being synced.
func BuildMap(fsys afero.Fs, reg *source.Registry, layout config.Layout, logger *log.Logger) (*Map, error) {
	logger = orDefault(logger)
	m := NewMap()

	for _, d := range reg.Enabled() {
		alias, err := source.ModuleAlias(d)
		if err != nil {
			return nil, err
		}

		// An absent source leaves its alias unknown to the rewriter.
		if Available(fsys, layout, d, logger) {
			entries, err := DiscoverSource(fsys, layout, d, logger)
			if err != nil {
				return nil, err
			}
			mod := m.ensure(alias, Module{
				Prefix:      splitPrefix(d.RefPrefix),
				Categorized: !d.Flat,
				Owner:       d.ID,
			})
			for _, e := range entries {
				m.claim(mod, alias, e.DirName, e.SkillName, d.ID, logger)
			}
		}

		if err := m.addSpecialRoots(fsys, layout, d, logger); err != nil {
			return nil, err
		}
	}

	logger.Debug("built workflow map", "aliases", len(m.modules), "workflows", m.Len())
	return m, nil
}

func (m *Map) addSpecialRoots(fsys afero.Fs, layout config.Layout, d source.Descriptor, logger *log.Logger) error {
	aliases := make([]string, 0, len(d.SpecialRoots))
	for alias := range d.SpecialRoots {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		dir := filepath.Join(layout.SourceDir(d), d.SpecialRoots[alias])
		if !fsutil.IsDir(fsys, dir) {
			logger.Debug("special root not found", "source", d.ID, "alias", alias, "path", dir)
			continue
		}
		names, err := fsutil.SubDirs(fsys, dir)
		if err != nil {
			return fmt.Errorf("reading special root %s for %s: %w", alias, d.ID, err)
		}
		mod := m.ensure(alias, Module{Owner: d.ID})
		for _, name := range names {
			m.claim(mod, alias, name, name, d.ID, logger)
		}
	}
	return nil
}

func splitPrefix(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
