// Package filex holds small filesystem helpers for writing received files.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxNameLength matches common filesystem limits.
const MaxNameLength = 255

var (
	ErrDirectoryTraversal = errors.New("file name contains directory traversal")
	ErrEmptyName          = errors.New("file name is empty")
	ErrNameTooLong        = errors.New("file name too long")
)

// EnsureDir creates dir if needed and returns its absolute path. Relative
// paths are resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SafeName validates a file name received from a remote party. Only a
// single path element is accepted.
func SafeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrEmptyName
	case len(name) > MaxNameLength:
		return "", ErrNameTooLong
	case name == "." || name == "..",
		strings.ContainsAny(name, `/\`),
		strings.ContainsRune(name, 0):
		return "", ErrDirectoryTraversal
	}
	return name, nil
}

// CreateUnique creates path, or "name (n).ext" when path already exists,
// and returns the open file. Existing files are never overwritten.
func CreateUnique(path string) (*os.File, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := path
	for i := 1; i <= 1000; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
	return nil, fmt.Errorf("no free name for %s", path)
}
