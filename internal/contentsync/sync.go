// Package contentsync copies upstream workflow content into the plugin skill
// tree, rewriting embedded references on the way.
package contentsync

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
	"github.com/bmad-plugin/bmadsync/internal/config"
	"github.com/bmad-plugin/bmadsync/internal/fsutil"
	"github.com/bmad-plugin/bmadsync/internal/rewrite"
	"github.com/bmad-plugin/bmadsync/internal/source"
	"github.com/bmad-plugin/bmadsync/internal/workflow"
)

// Syncer copies and rewrites upstream content. The workflow map behind
// Rewriter must be built from every enabled source before syncing starts.
type Syncer struct {
	Fs       afero.Fs
	Registry *source.Registry
	Layout   config.Layout
	Rewriter *rewrite.Rewriter
	DryRun   bool
	Logger   *log.Logger
}

func (s *Syncer) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

// SyncAll syncs every enabled source. Sources that are not checked out are
// skipped with a log line.
func (s *Syncer) SyncAll(ctx context.Context) (Stats, error) {
	var total Stats
	for _, d := range s.Registry.Enabled() {
		st, err := s.syncDescriptor(ctx, d)
		if err != nil {
			return total, err
		}
		total.Merge(st)
	}
	return total, nil
}

// SyncSource syncs one enabled source by id.
func (s *Syncer) SyncSource(ctx context.Context, id string) (Stats, error) {
	d, ok := s.Registry.Get(id)
	if !ok {
		return Stats{}, fmt.Errorf("unknown source: %s (known: %s)", id, strings.Join(s.Registry.IDs(), ", "))
	}
	if !d.Enabled {
		return Stats{}, fmt.Errorf("source %s is disabled", id)
	}
	return s.syncDescriptor(ctx, d)
}

func (s *Syncer) syncDescriptor(ctx context.Context, d source.Descriptor) (Stats, error) {
	var st Stats
	if !workflow.Available(s.Fs, s.Layout, d, s.logger()) {
		st.Skipped = append(st.Skipped, d.ID)
		return st, nil
	}

	entries, err := workflow.DiscoverSource(s.Fs, s.Layout, d, s.logger())
	if err != nil {
		return st, SourceError{Source: d.ID, Err: err}
	}
	if dups := workflow.DuplicateSkills(entries); len(dups) > 0 {
		return st, SourceError{Source: d.ID, Err: fmt.Errorf("skill names claimed twice: %s", strings.Join(dups, ", "))}
	}

	for _, e := range entries {
		if err := s.syncEntry(ctx, d, e, &st); err != nil {
			return st, SourceError{Source: d.ID, Err: err}
		}
	}

	if err := s.syncShared(ctx, d, &st); err != nil {
		return st, SourceError{Source: d.ID, Err: err}
	}

	st.Sources = append(st.Sources, d.ID)
	s.logger().Info("synced source", "source", d.ID, "workflows", len(entries), "files", st.Files, "rewrites", st.Rewrites)
	return st, nil
}

func (s *Syncer) syncEntry(ctx context.Context, d source.Descriptor, e workflow.Entry, st *Stats) error {
	files, err := fsutil.ListFiles(s.Fs, e.UpstreamDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", e.UpstreamDir, err)
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		display := s.pluginRel(filepath.Join(e.OutputDir, rel))
		if d.SkipsContent(rel) {
			st.Actions = append(st.Actions, FileAction{Path: display, Action: ActionSkipped})
			continue
		}

		src := filepath.Join(e.UpstreamDir, filepath.FromSlash(rel))
		dst := filepath.Join(e.OutputDir, filepath.FromSlash(rel))

		data, err := afero.ReadFile(s.Fs, src)
		if err != nil {
			return fmt.Errorf("reading %s: %w", src, err)
		}

		if rewrite.IsTextFile(rel) {
			res := s.Rewriter.Rewrite(string(data))
			if res.Changes > 0 {
				st.Rewrites += res.Changes
				st.RewrittenFiles++
			}
			for _, w := range res.Warnings {
				st.Warnings = append(st.Warnings, display+": "+w)
			}
			data = []byte(res.Content)
		}

		action, err := s.write(dst, data)
		if err != nil {
			return err
		}
		st.Files++
		st.Actions = append(st.Actions, FileAction{Path: display, Action: action})
	}

	s.logger().Debug("synced workflow", "workflow", e.DirName, "skill", e.SkillName, "files", len(files))
	return nil
}

// syncShared copies each "<category>/_shared" directory named in the
// descriptor's shared-file targets into the plugin _shared directory and into
// every target skill's data directory, byte for byte.
func (s *Syncer) syncShared(ctx context.Context, d source.Descriptor, st *Stats) error {
	categories := make([]string, 0, len(d.SharedFileTargets))
	for c := range d.SharedFileTargets {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		sharedDir := filepath.Join(s.Layout.ContentRoot(d), category, artifact.SharedDirName)
		if !fsutil.IsDir(s.Fs, sharedDir) {
			s.logger().Debug("no shared directory", "source", d.ID, "category", category)
			continue
		}
		files, err := fsutil.ListFiles(s.Fs, sharedDir)
		if err != nil {
			return fmt.Errorf("listing %s: %w", sharedDir, err)
		}

		targets := d.SharedFileTargets[category]
		for _, rel := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := afero.ReadFile(s.Fs, filepath.Join(sharedDir, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}

			dests := []string{filepath.Join(s.Layout.SharedDir(), filepath.FromSlash(rel))}
			for _, skill := range targets {
				dests = append(dests, filepath.Join(s.Layout.SkillsDir(), skill, artifact.DataDirName, filepath.FromSlash(rel)))
			}
			for _, dst := range dests {
				action, err := s.write(dst, data)
				if err != nil {
					return err
				}
				st.SharedFiles++
				st.Actions = append(st.Actions, FileAction{Path: s.pluginRel(dst), Action: action})
			}
		}
		s.logger().Info("distributed shared files", "category", category, "files", len(files), "skills", len(targets))
	}
	return nil
}

// write stores data at dst unless it already holds exactly that content.
func (s *Syncer) write(dst string, data []byte) (string, error) {
	if existing, err := afero.ReadFile(s.Fs, dst); err == nil && bytes.Equal(existing, data) {
		return ActionUnchanged, nil
	}
	if s.DryRun {
		return ActionPlanned, nil
	}
	if err := fsutil.WriteFile(s.Fs, dst, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", dst, err)
	}
	return ActionWritten, nil
}

func (s *Syncer) pluginRel(p string) string {
	rel, err := filepath.Rel(s.Layout.PluginDir, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
