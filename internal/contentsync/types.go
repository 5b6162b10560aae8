package contentsync

// Action names used in FileAction
const (
	ActionWritten   = "written"
	ActionUnchanged = "unchanged"
	ActionSkipped   = "skipped"
	ActionPlanned   = "would write"
)

// FileAction records what happened to one destination file.
type FileAction struct {
	Path   string // relative to the plugin root
	Action string
}

// SourceError represents an error associated with a specific source.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Stats accumulates the outcome of a sync run.
type Stats struct {
	// Sources lists synced source ids; Skipped lists unavailable ones
	Sources []string
	Skipped []string

	// Files counts files copied or rewritten into skills
	Files int
	// SharedFiles counts shared-file copies, central and per-skill
	SharedFiles int
	// Rewrites counts substituted references across all files
	Rewrites int
	// RewrittenFiles counts files with at least one substitution
	RewrittenFiles int
	// Warnings lists unresolved references as "<file>: <warning>"
	Warnings []string

	Actions []FileAction
}

// Merge adds other into s.
func (s *Stats) Merge(other Stats) {
	s.Sources = append(s.Sources, other.Sources...)
	s.Skipped = append(s.Skipped, other.Skipped...)
	s.Files += other.Files
	s.SharedFiles += other.SharedFiles
	s.Rewrites += other.Rewrites
	s.RewrittenFiles += other.RewrittenFiles
	s.Warnings = append(s.Warnings, other.Warnings...)
	s.Actions = append(s.Actions, other.Actions...)
}

// Written returns the actions that changed, or would change, a file.
func (s *Stats) Written() []FileAction {
	var out []FileAction
	for _, a := range s.Actions {
		if a.Action == ActionWritten || a.Action == ActionPlanned {
			out = append(out, a)
		}
	}
	return out
}
