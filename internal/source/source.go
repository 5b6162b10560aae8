package source

import (
	"fmt"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// CoreID is the identifier of the source that anchors version derivation
const CoreID = "core"

// Descriptor describes one upstream source: where it lives, how its content root
// is laid out, and which names it overrides or skips.
type Descriptor struct {
	ID          string
	Name        string
	Repo        string // owner/repo
	LocalPath   string // relative to the upstream dir
	VersionFile string // relative to the project root
	Enabled     bool

	ContentRoot string // relative to the checkout
	AgentsRoot  string
	Flat        bool

	// Alias overrides the module alias used inside references
	Alias string
	// RefPrefix holds the segments between "workflows/" and the workflow name
	// in references, e.g. "testarch"
	RefPrefix string
	// SpecialRoots maps an extra alias to a directory whose immediate
	// subdirectories are addressable workflows
	SpecialRoots map[string]string

	SkipDirs            []string
	SkipWorkflows       []string
	SkipContentFiles    []string
	SkipContentPatterns []string
	Workarounds         map[string]string
	// PlannedWorkflows are referenced by upstream agents but not published yet
	PlannedWorkflows []string

	PluginOnlySkills  []string
	PluginOnlyAgents  []string
	PluginOnlyData    []string
	SharedFileTargets map[string][]string
}

// SkillName returns the output name for an upstream workflow directory.
func (d Descriptor) SkillName(dirName string) string {
	if mapped, ok := d.Workarounds[dirName]; ok && mapped != "" {
		return mapped
	}
	return dirName
}

// Skips reports whether a directory name is excluded from discovery.
func (d Descriptor) Skips(dirName string) bool {
	return slices.Contains(d.SkipDirs, dirName) || slices.Contains(d.SkipWorkflows, dirName)
}

// SkipsContentFile reports whether a file basename is never copied.
func (d Descriptor) SkipsContentFile(name string) bool {
	return slices.Contains(d.SkipContentFiles, name)
}

// SkipsContent reports whether a workflow-relative, slash-separated path is
// never copied: its basename is a skipped file or it matches a skip pattern.
func (d Descriptor) SkipsContent(rel string) bool {
	if d.SkipsContentFile(path.Base(rel)) {
		return true
	}
	for _, pattern := range d.SkipContentPatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// DisplayName returns Name, falling back to ID.
func (d Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Registry is an ordered set of source descriptors
type Registry struct {
	sources []Descriptor
}

// NewRegistry builds a registry from descriptors, in order.
func NewRegistry(sources ...Descriptor) *Registry {
	return &Registry{sources: slices.Clone(sources)}
}

// Validate checks the registry invariants: unique ids, exactly one core
// source, and a known module alias for every descriptor.
func (r *Registry) Validate() error {
	seen := make(map[string]bool, len(r.sources))
	cores := 0
	for _, d := range r.sources {
		if d.ID == "" {
			return fmt.Errorf("source with empty id")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate source id: %s", d.ID)
		}
		seen[d.ID] = true
		if d.ID == CoreID {
			cores++
		}
		if _, err := ModuleAlias(d); err != nil {
			return err
		}
	}
	if cores != 1 {
		return fmt.Errorf("registry must contain exactly one %q source, found %d", CoreID, cores)
	}
	return nil
}

// All returns every descriptor in order.
func (r *Registry) All() []Descriptor {
	return slices.Clone(r.sources)
}

// Enabled returns the enabled descriptors in order.
func (r *Registry) Enabled() []Descriptor {
	var out []Descriptor
	for _, d := range r.sources {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// Get finds a descriptor by id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	for _, d := range r.sources {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Core returns the core descriptor.
func (r *Registry) Core() Descriptor {
	d, _ := r.Get(CoreID)
	return d
}

// IDs returns all source ids in order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.sources))
	for _, d := range r.sources {
		ids = append(ids, d.ID)
	}
	return ids
}

// With returns a copy of the registry with d replacing the descriptor that has
// the same id, or appended when none does.
func (r *Registry) With(d Descriptor) *Registry {
	out := NewRegistry(r.sources...)
	for i := range out.sources {
		if out.sources[i].ID == d.ID {
			out.sources[i] = d
			return out
		}
	}
	out.sources = append(out.sources, d)
	return out
}

// moduleAliases is the alias used inside references for each known source id.
// core content lives under "bmm" in upstream references.
var moduleAliases = map[string]string{
	"core": "bmm",
	"tea":  "tea",
	"bmb":  "bmb",
	"cis":  "cis",
	"gds":  "gds",
}

// ModuleAlias returns the reference alias for a descriptor: its explicit Alias
// when set, else the fixed per-id table.
func ModuleAlias(d Descriptor) (string, error) {
	if d.Alias != "" {
		return d.Alias, nil
	}
	if alias, ok := moduleAliases[d.ID]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("source %q has no module alias; set alias explicitly", d.ID)
}
