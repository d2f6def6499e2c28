package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// removeAll is a seam for retention tests.
var removeAll = os.RemoveAll

// Info describes one existing session directory.
type Info struct {
	Name    string
	Path    string
	ModTime time.Time
}

// List returns the session directories under the base directory sorted by
// modification time, newest first. A missing base directory yields an empty
// list, not an error.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "list", Path: m.baseDir, Err: err}
	}

	var infos []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// Entry vanished between readdir and stat; a concurrent
			// sweep may have removed it.
			continue
		}
		infos = append(infos, Info{
			Name:    e.Name(),
			Path:    filepath.Join(m.baseDir, e.Name()),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].ModTime.Equal(infos[j].ModTime) {
			return infos[i].ModTime.After(infos[j].ModTime)
		}
		return infos[i].Name > infos[j].Name
	})
	return infos, nil
}

// EnforceRetention deletes every session beyond the keep most recently
// modified ones, oldest first. A failed deletion is recorded and the sweep
// continues; the combined error joins all failures. The sweep holds the
// base directory's lock so concurrent sweeps cannot interleave. Nothing
// ever calls this implicitly; pruning is a distinct operator action.
func (m *Manager) EnforceRetention(keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("retention keep %d is negative", keep)
	}
	if _, err := os.Stat(m.baseDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	unlock, err := m.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return nil, nil
	}

	doomed := infos[keep:]
	var removed []string
	var errs []error
	for i := len(doomed) - 1; i >= 0; i-- {
		d := doomed[i]
		if err := removeAll(d.Path); err != nil {
			errs = append(errs, &IOError{Op: "delete", Path: d.Path, Err: err})
			continue
		}
		removed = append(removed, d.Path)
	}
	return removed, errors.Join(errs...)
}

// acquireLock takes the base directory's retention lock. The lock file is
// created exclusively; a leftover lock from a crashed sweep surfaces as an
// IOError for the operator to clear.
func (m *Manager) acquireLock() (func(), error) {
	path := filepath.Join(m.baseDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, &IOError{Op: "lock", Path: path, Err: err}
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, &IOError{Op: "lock", Path: path, Err: err}
	}
	return func() { os.Remove(path) }, nil
}
