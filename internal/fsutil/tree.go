package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
)

// RelFiles returns the slash-separated paths, relative to root, of every
// regular file below root, sorted. A missing root holds no files.
func RelFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CommonFiles returns the relative paths present below both a and b.
func CommonFiles(a, b string) ([]string, error) {
	inA, err := RelFiles(a)
	if err != nil {
		return nil, err
	}
	inB, err := RelFiles(b)
	if err != nil {
		return nil, err
	}
	var common []string
	for _, f := range inB {
		if _, found := slices.BinarySearch(inA, f); found {
			common = append(common, f)
		}
	}
	return common, nil
}

// RemoveEmptyDirs removes every directory below root, root included, that
// holds no files once its empty children are gone. Non-empty directories
// and a missing root are left alone.
func RemoveEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	// Deepest first; WalkDir visits parents before children.
	for _, dir := range slices.Backward(dirs) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				return err
			}
		}
	}
	return nil
}
