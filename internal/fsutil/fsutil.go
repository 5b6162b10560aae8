// Package fsutil holds the small filesystem helpers shared by discovery, sync
// and the checks. Everything goes through afero so tests can run on memory.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Exists reports whether p exists.
func Exists(fsys afero.Fs, p string) bool {
	_, err := fsys.Stat(p)
	return err == nil
}

// IsDir reports whether p exists and is a directory.
func IsDir(fsys afero.Fs, p string) bool {
	info, err := fsys.Stat(p)
	return err == nil && info.IsDir()
}

// IsNotExist reports whether err means the path is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// SubDirs lists the immediate subdirectory names of dir, sorted.
func SubDirs(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListFiles returns every regular file below root as a sorted, slash-separated
// path relative to root. A missing root yields an empty list.
func ListFiles(fsys afero.Fs, root string) ([]string, error) {
	if !IsDir(fsys, root) {
		return nil, nil
	}
	var files []string
	err := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// WriteFile writes data to p, creating parent directories.
func WriteFile(fsys afero.Fs, p string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, p, data, 0644)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace runs to one space, turns single quotes into
// double quotes and trims the result. Content checks compare normalized text.
func Normalize(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "'", `"`)
	return strings.TrimSpace(s)
}
