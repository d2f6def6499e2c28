// Package rasterize turns a paginated source document into an ordered set
// of page image files, numbered from 1. PDFs go through pdfcpu image
// extraction; single images pass through as a one-page set.
package rasterize

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is the nominal render resolution recorded for page sets.
const DefaultDPI = 300

// PageSet is an ordered collection of page image files for one source.
// Temp-backed sets own their directory and must be released with Cleanup.
type PageSet struct {
	paths   []string
	tempDir string // empty for pass-through sets
}

// Paths returns the page image paths in page order (index 0 is page 1).
func (ps *PageSet) Paths() []string {
	out := make([]string, len(ps.paths))
	copy(out, ps.paths)
	return out
}

// Len returns the page count.
func (ps *PageSet) Len() int { return len(ps.paths) }

// Cleanup removes the temp directory backing an extracted set. Pass-through
// sets never delete the caller's source image.
func (ps *PageSet) Cleanup() error {
	if ps.tempDir == "" {
		return nil
	}
	return os.RemoveAll(ps.tempDir)
}

// IsPDF reports whether the path names a PDF by extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Open produces the page set for a source document: PDF extraction for
// PDFs, a single-page pass-through set for anything else. dpi sizes the
// placeholder for pages without extractable image content; 0 means
// DefaultDPI.
func Open(ctx context.Context, path string, dpi int) (*PageSet, error) {
	if IsPDF(path) {
		return PDFToImages(ctx, path, dpi)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source image: %w", err)
	}
	return &PageSet{paths: []string{path}}, nil
}

// PDFToImages extracts every page's image content into a temp directory
// and re-encodes it as page_%03d.png in page order. Pages whose extraction
// yields nothing are still counted (a blank page is a valid page); their
// entry is a generated white placeholder so page numbering stays dense.
func PDFToImages(ctx context.Context, pdfPath string, dpi int) (*PageSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("page count of %s: %w", pdfPath, err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("%s has no pages", pdfPath)
	}

	tempDir, err := os.MkdirTemp("", "textsift-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create temp page dir: %w", err)
	}

	extractDir := filepath.Join(tempDir, "raw")
	if err := os.MkdirAll(extractDir, 0o750); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("create extract dir: %w", err)
	}
	if err := api.ExtractImagesFile(pdfPath, extractDir, nil, nil); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("extract images from %s: %w", pdfPath, err)
	}

	byPage, err := collectByPage(extractDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	ps := &PageSet{tempDir: tempDir}
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			os.RemoveAll(tempDir)
			return nil, err
		}
		out := filepath.Join(tempDir, fmt.Sprintf("page_%03d.png", page))
		img := byPage[page]
		if img == nil {
			img = blankPage(dpi)
		}
		if err := imaging.Save(img, out); err != nil {
			os.RemoveAll(tempDir)
			return nil, fmt.Errorf("encode page %d: %w", page, err)
		}
		ps.paths = append(ps.paths, out)
	}
	return ps, nil
}

// collectByPage loads the extracted files and keeps the largest image per
// page (pdfcpu may emit several objects for one page).
func collectByPage(dir string) (map[int]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read extract dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	byPage := make(map[int]image.Image)
	for _, name := range names {
		page, ok := pageFromExtractName(name)
		if !ok {
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			// Unsupported embedded format; skip, the page gets a placeholder.
			continue
		}
		if cur := byPage[page]; cur == nil || area(img) > area(cur) {
			byPage[page] = img
		}
	}
	return byPage, nil
}

// pageFromExtractName parses the page number out of pdfcpu's extract
// naming, e.g. doc_page_2_Im0.png.
func pageFromExtractName(name string) (int, bool) {
	parts := strings.Split(strings.TrimSuffix(name, filepath.Ext(name)), "_")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "page" {
			if n, err := strconv.Atoi(parts[i+1]); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

func blankPage(dpi int) image.Image {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	// A4 at the requested resolution; white so downstream OCR sees an
	// empty page.
	w := int(8.27 * float64(dpi))
	h := int(11.69 * float64(dpi))
	return imaging.New(w, h, color.White)
}
