package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// processable document extensions (images plus PDFs).
var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".pdf"}

// Discover finds processable documents under the given paths. Directories
// are walked (recursively when asked), files are taken as-is when they
// match; the result is sorted for a deterministic processing order.
func Discover(args []string, recursive bool, pattern string) ([]string, error) {
	var found []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if include(arg, pattern) {
				found = append(found, arg)
			}
			continue
		}

		err = filepath.Walk(arg, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				if !recursive && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if include(path, pattern) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	slices.Sort(found)
	return found, nil
}

// include applies the extension filter and the optional glob pattern
// against the base name.
func include(path string, pattern string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(defaultExtensions, ext) {
		return false
	}
	if pattern == "" {
		return true
	}
	ok, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && ok
}
