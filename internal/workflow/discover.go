// Package workflow discovers upstream workflow directories and builds the
// cross-source lookup used to resolve references between them.
package workflow

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/config"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/source"
)

// Entry is one discovered workflow
type Entry struct {
	// DirName is the upstream directory name
	DirName string
	// SkillName is the plugin skill name after workaround mapping
	SkillName string
	// UpstreamDir is the absolute upstream workflow directory
	UpstreamDir string
	// OutputDir is the absolute plugin skill directory
	OutputDir string
}

// Remapped reports whether a workaround renamed this entry.
func (e Entry) Remapped() bool {
	return e.DirName != e.SkillName
}

// IsLeaf reports whether dir directly contains a workflow definition file.
func IsLeaf(fsys afero.Fs, dir string) bool {
	for _, marker := range artifact.LeafMarkers {
		if fsutil.Exists(fsys, filepath.Join(dir, marker)) {
			return true
		}
	}
	return false
}

// Discover lists the workflows under contentRoot for one source. A missing
// content root yields no entries and no error.
func Discover(fsys afero.Fs, d source.Descriptor, contentRoot, skillsRoot string, logger *log.Logger) ([]Entry, error) {
	logger = orDefault(logger)

	if !fsutil.IsDir(fsys, contentRoot) {
		logger.Debug("content root not found", "source", d.ID, "path", contentRoot)
		return nil, nil
	}

	top, err := fsutil.SubDirs(fsys, contentRoot)
	if err != nil {
		return nil, fmt.Errorf("reading content root for %s: %w", d.ID, err)
	}

	var entries []Entry
	add := func(dirName, upstreamDir string) {
		skill := d.SkillName(dirName)
		entries = append(entries, Entry{
			DirName:     dirName,
			SkillName:   skill,
			UpstreamDir: upstreamDir,
			OutputDir:   filepath.Join(skillsRoot, skill),
		})
	}

	for _, name := range top {
		if d.Skips(name) {
			continue
		}
		dir := filepath.Join(contentRoot, name)

		if d.Flat {
			add(name, dir)
			continue
		}

		// A category holding a definition file is itself the workflow.
		if IsLeaf(fsys, dir) {
			add(name, dir)
			continue
		}

		subs, err := fsutil.SubDirs(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("reading category %s/%s: %w", d.ID, name, err)
		}
		for _, sub := range subs {
			if d.Skips(sub) {
				continue
			}
			add(sub, filepath.Join(dir, sub))
		}
	}

	logger.Debug("discovered workflows", "source", d.ID, "count", len(entries))
	return entries, nil
}

// DuplicateSkills returns skill names claimed by more than one entry, sorted.
// Any result points at a bad workaround table.
func DuplicateSkills(entries []Entry) []string {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.SkillName]++
	}
	var dups []string
	for name, n := range counts {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// Available reports whether a source's content root can be walked. A source
// that is not checked out is logged as info; a checkout without its content
// root is logged as a warning since it points at a setup problem.
func Available(fsys afero.Fs, layout config.Layout, d source.Descriptor, logger *log.Logger) bool {
	logger = orDefault(logger)
	if !fsutil.IsDir(fsys, layout.SourceDir(d)) {
		logger.Info("source not checked out, skipping", "source", d.ID, "path", layout.SourceDir(d))
		return false
	}
	if !fsutil.IsDir(fsys, layout.ContentRoot(d)) {
		logger.Warn("content root missing from checkout", "source", d.ID, "path", layout.ContentRoot(d))
		return false
	}
	return true
}

// DiscoverSource runs Discover with the layout's paths for d.
func DiscoverSource(fsys afero.Fs, layout config.Layout, d source.Descriptor, logger *log.Logger) ([]Entry, error) {
	return Discover(fsys, d, layout.ContentRoot(d), layout.SkillsDir(), logger)
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Default()
	}
	return logger
}
