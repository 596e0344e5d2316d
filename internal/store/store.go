// Package store persists analyses, roles, settings and uploaded transcripts.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a named upload does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidName is returned for upload names that cannot be stored safely.
	ErrInvalidName = errors.New("store: invalid file name")
)

// CleanUploadName reduces a client-supplied filename to a safe base name.
// Both slash styles are treated as separators since browsers on Windows may
// send full paths.
func CleanUploadName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	base := strings.TrimSpace(filepath.Base(name))
	switch {
	case base == "", base == ".", base == "..", base == "/":
		return "", ErrInvalidName
	case strings.HasPrefix(base, "."):
		return "", ErrInvalidName
	}
	return base, nil
}

// writeFileAtomic replaces path with data via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
