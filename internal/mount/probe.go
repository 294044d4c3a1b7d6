package mount

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindByName recursively searches root for regular files named exactly
// name, returning matches sorted lexicographically. Used when Check's
// cluster lookup misses and falls back to a name search.
func FindByName(root, name string) ([]string, error) {
	var out []string

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("mount: reading directory %s: %w", root, err)
	}

	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			sub, err := FindByName(full, name)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if e.Type().IsRegular() && e.Name() == name {
			out = append(out, full)
		}
	}

	sort.Strings(out)
	return out, nil
}

// FindByExtension recursively searches root for regular files whose name
// ends in ext (case-insensitive), returning matches in depth-first,
// lexicographic-per-directory order: files in a directory before its
// subdirectories, each group sorted.
func FindByExtension(root, ext string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("mount: reading directory %s: %w", root, err)
	}

	var files []string
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
			continue
		}
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)

	out := append([]string{}, files...)
	for _, d := range dirs {
		sub, err := FindByExtension(filepath.Join(root, d), ext)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}
