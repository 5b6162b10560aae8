// Package rewrite turns upstream project-root references embedded in text
// files into plugin-root references.
package rewrite

import (
	"path"
	"slices"
	"strings"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

// Options holds the tokens of both path conventions
type Options struct {
	// Marker prefixes every upstream reference
	Marker string
	// PluginRoot prefixes every rewritten plugin path
	PluginRoot string
	// ConfigTarget replaces every config file reference
	ConfigTarget string
	// ConfigFile is the upstream module config filename
	ConfigFile string
	// IndexExt marks knowledge index files
	IndexExt string
	// WorkflowsDir is the segment that introduces workflow paths
	WorkflowsDir string
	// TasksDir is the shared task segment
	TasksDir string
	// DeferredDirs are remainders left alone, resolved by another layer
	DeferredDirs []string
	// DirectAliases address workflows without the workflows segment
	DirectAliases []string
}

// DefaultOptions returns the standard tokens.
func DefaultOptions() Options {
	return Options{
		Marker:        "{project-root}/_bmad/",
		PluginRoot:    "${CLAUDE_PLUGIN_ROOT}",
		ConfigTarget:  ".claude/bmad.local.md",
		ConfigFile:    "config.yaml",
		IndexExt:      ".csv",
		WorkflowsDir:  "workflows",
		TasksDir:      artifact.TasksDirName,
		DeferredDirs:  []string{"_memory", "_config"},
		DirectAliases: []string{"core"},
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Marker == "" {
		o.Marker = def.Marker
	}
	if o.PluginRoot == "" {
		o.PluginRoot = def.PluginRoot
	}
	if o.ConfigTarget == "" {
		o.ConfigTarget = def.ConfigTarget
	}
	if o.ConfigFile == "" {
		o.ConfigFile = def.ConfigFile
	}
	if o.IndexExt == "" {
		o.IndexExt = def.IndexExt
	}
	if o.WorkflowsDir == "" {
		o.WorkflowsDir = def.WorkflowsDir
	}
	if o.TasksDir == "" {
		o.TasksDir = def.TasksDir
	}
	if o.DeferredDirs == nil {
		o.DeferredDirs = def.DeferredDirs
	}
	if o.DirectAliases == nil {
		o.DirectAliases = def.DirectAliases
	}
	return o
}

// Kind classifies a reference
type Kind int

const (
	KindUnknown Kind = iota
	KindDeferred
	KindTask
	KindConfig
	KindIndex
	KindWorkflow
	KindCoreWorkflow
)

func (k Kind) String() string {
	switch k {
	case KindDeferred:
		return "deferred"
	case KindTask:
		return "task"
	case KindConfig:
		return "config"
	case KindIndex:
		return "index"
	case KindWorkflow:
		return "workflow"
	case KindCoreWorkflow:
		return "core-workflow"
	default:
		return "unknown"
	}
}

// Change records one substitution
type Change struct {
	From string
	To   string
	Kind Kind
}

// Result is the outcome of rewriting one text
type Result struct {
	Content string
	// Changes counts substituted references
	Changes int
	// Rewrites lists each substitution in order
	Rewrites []Change
	// Warnings name references that looked rewritable but could not be resolved
	Warnings []string
}

// Rewriter rewrites references against a workflow map. It holds no mutable
// state and is safe to reuse across files.
type Rewriter struct {
	opts Options
	m    *workflow.Map
}

// New returns a Rewriter over m. Empty option fields take their defaults.
func New(m *workflow.Map, opts Options) *Rewriter {
	if m == nil {
		m = workflow.NewMap()
	}
	return &Rewriter{opts: opts.withDefaults(), m: m}
}

// Options returns the effective options.
func (r *Rewriter) Options() Options {
	return r.opts
}

// Classify returns the kind of a reference. Rules are tested in order and the
// first match wins.
func (r *Rewriter) Classify(alias, remainder string) Kind {
	o := r.opts
	for _, dir := range o.DeferredDirs {
		if strings.HasPrefix(remainder, dir+"/") {
			return KindDeferred
		}
	}
	if strings.HasPrefix(remainder, o.TasksDir+"/") {
		return KindTask
	}
	if remainder == o.ConfigFile || strings.HasSuffix(remainder, "/"+o.ConfigFile) {
		return KindConfig
	}
	workflows := strings.HasPrefix(remainder, o.WorkflowsDir+"/")
	if strings.HasSuffix(remainder, o.IndexExt) && !workflows {
		return KindIndex
	}
	if workflows {
		return KindWorkflow
	}
	if slices.Contains(o.DirectAliases, alias) {
		return KindCoreWorkflow
	}
	return KindUnknown
}

// Rewrite replaces every resolvable reference in text in one pass. Each
// reference is handled independently; unresolved ones are left verbatim and
// reported.
func (r *Rewriter) Rewrite(text string) Result {
	refs := Scan(text, r.opts.Marker)
	if len(refs) == 0 {
		return Result{Content: text}
	}

	var (
		b    strings.Builder
		res  Result
		last int
	)
	b.Grow(len(text))

	for _, ref := range refs {
		b.WriteString(text[last:ref.Start])
		last = ref.End

		kind := r.Classify(ref.Alias, ref.Remainder)
		replacement, warning := r.resolve(kind, ref)
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
		if replacement == "" {
			b.WriteString(ref.Text(text))
			continue
		}
		b.WriteString(replacement)
		res.Changes++
		res.Rewrites = append(res.Rewrites, Change{From: ref.Text(text), To: replacement, Kind: kind})
	}
	b.WriteString(text[last:])

	res.Content = b.String()
	return res
}

// resolve returns the replacement for ref, or a warning when it has none.
// Deferred references return neither.
func (r *Rewriter) resolve(kind Kind, ref Ref) (string, string) {
	o := r.opts
	switch kind {
	case KindDeferred:
		return "", ""
	case KindTask:
		file := strings.TrimPrefix(ref.Remainder, o.TasksDir+"/")
		return r.pluginPath(artifact.SharedDirName, artifact.TasksDirName, file), ""
	case KindConfig:
		return o.ConfigTarget, ""
	case KindIndex:
		return r.pluginPath(artifact.SharedDirName, path.Base(ref.Remainder)), ""
	case KindWorkflow:
		return r.resolveWorkflow(ref, strings.TrimPrefix(ref.Remainder, o.WorkflowsDir+"/"))
	case KindCoreWorkflow:
		return r.resolveWorkflow(ref, ref.Remainder)
	default:
		return "", "Unrecognized path: " + ref.Path(o.Marker)
	}
}

// resolveWorkflow maps "<prefix...>/<workflow>/<sub>" or, for categorized
// modules, "<prefix...>/<category>/<workflow>/<sub>" to a skill path.
func (r *Rewriter) resolveWorkflow(ref Ref, p string) (string, string) {
	mod, ok := r.m.Module(ref.Alias)
	if !ok {
		return "", "Unknown module alias: " + ref.Alias + " in " + ref.Path(r.opts.Marker)
	}

	segments := strings.Split(p, "/")
	start := 0
	if n := len(mod.Prefix); n > 0 && len(segments) > n && slices.Equal(segments[:n], mod.Prefix) {
		start = n
	}

	var skill string
	next := -1
	if name := segments[start]; name != "" {
		if s, ok := mod.Names[name]; ok {
			skill, next = s, start+1
		}
	}
	if next < 0 && mod.Categorized && start+1 < len(segments) {
		if name := segments[start+1]; name != "" {
			if s, ok := mod.Names[name]; ok {
				skill, next = s, start+2
			}
		}
	}
	if next < 0 {
		return "", "Cannot resolve workflow in: " + ref.Path(r.opts.Marker)
	}

	sub := strings.Join(segments[next:], "/")
	if artifact.IsLeafMarker(sub) {
		sub = artifact.SkillFilename
	}
	if sub == "" {
		return r.pluginPath(artifact.SkillsDirName, skill), ""
	}
	return r.pluginPath(artifact.SkillsDirName, skill, sub), ""
}

func (r *Rewriter) pluginPath(parts ...string) string {
	return r.opts.PluginRoot + "/" + strings.Join(parts, "/")
}

var textExtensions = []string{".md", ".xml", ".yaml", ".yml", ".csv", ".txt", ".json"}

// IsTextFile reports whether a file should go through the rewriter.
func IsTextFile(name string) bool {
	return slices.Contains(textExtensions, path.Ext(name))
}
