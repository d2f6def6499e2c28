// Package session manages the versioned output locations of processing
// runs: uniquely named per-run directories under a common base directory,
// newest-first listing and an explicit retention sweep over old runs.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBaseDir is the default location for session directories.
	DefaultBaseDir = "ocr_outputs"

	// DefaultRetention is the number of most recent sessions a sweep keeps.
	DefaultRetention = 3

	timestampLayout = "20060102_150405"
	lockFileName    = ".retention.lock"
)

// IOError reports a failed session filesystem operation. A failed create is
// fatal to its run; failed deletions inside a retention sweep are collected
// while the sweep continues.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Session is one run's output directory. It is created before any page is
// processed and never mutated afterwards; only a retention sweep or an
// explicit operator action removes it.
type Session struct {
	Name      string
	Path      string
	CreatedAt time.Time
}

// File returns the absolute path of a file inside the session directory.
func (s *Session) File(name string) string {
	return filepath.Join(s.Path, name)
}

// WriteFile writes an export artifact into the session directory.
func (s *Session) WriteFile(name string, data []byte) error {
	path := s.File(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Manager allocates and prunes session directories under one base directory.
type Manager struct {
	baseDir string
	now     func() time.Time
}

// NewManager creates a manager rooted at baseDir. An empty baseDir selects
// DefaultBaseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return &Manager{baseDir: baseDir, now: time.Now}
}

// BaseDir returns the directory sessions are created under.
func (m *Manager) BaseDir() string { return m.baseDir }

// Create allocates a new session directory named from the source file's
// base name and a second-resolution timestamp. Two runs on the same source
// within one second collide on the name; the first collision is retried
// once with a nanosecond-suffixed stamp, a second collision fails. Create
// never prunes old sessions.
func (m *Manager) Create(sourcePath string) (*Session, error) {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return nil, &IOError{Op: "create", Path: m.baseDir, Err: err}
	}

	now := m.now()
	name := fmt.Sprintf("%s_%s", base, now.Format(timestampLayout))
	path := filepath.Join(m.baseDir, name)

	err := os.Mkdir(path, 0o750)
	if errors.Is(err, fs.ErrExist) {
		name = fmt.Sprintf("%s_%s_%09d", base, now.Format(timestampLayout), now.Nanosecond())
		path = filepath.Join(m.baseDir, name)
		err = os.Mkdir(path, 0o750)
	}
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	return &Session{Name: name, Path: path, CreatedAt: now}, nil
}
