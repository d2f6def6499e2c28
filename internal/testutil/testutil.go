// Package testutil provides shared test fixtures: synthetic detections,
// populated runs, deterministic images and temp session directories.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// GetProjectRoot walks up from the working directory to the module root,
// identified by go.mod. Integration suites run from nested packages.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}

// TempSessionBase creates a temp base directory for session tests.
func TempSessionBase(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// TouchDir creates an empty directory under base with the given mtime,
// for retention-ordering tests.
func TouchDir(t *testing.T, base, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(base, name)
	require.NoError(t, os.MkdirAll(path, 0o750))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}
