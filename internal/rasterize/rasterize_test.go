package rasterize

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/testutil"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("doc.pdf"))
	assert.True(t, IsPDF("DOC.PDF"))
	assert.False(t, IsPDF("scan.png"))
	assert.False(t, IsPDF("pdf"))
}

func TestOpenSingleImagePassThrough(t *testing.T) {
	dir := t.TempDir()
	path := testutil.SavePNG(t, dir, "scan.png", testutil.TextPageImage(120, 80, 2))

	ps, err := Open(context.Background(), path, 0)
	require.NoError(t, err)
	defer ps.Cleanup()

	require.Equal(t, 1, ps.Len())
	assert.Equal(t, []string{path}, ps.Paths())

	// Cleanup of a pass-through set must not delete the source image.
	require.NoError(t, ps.Cleanup())
	assert.FileExists(t, path)
}

func TestOpenMissingSource(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.Error(t, err)
}

func TestOpenCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PDFToImages(ctx, "whatever.pdf", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageFromExtractName(t *testing.T) {
	tests := []struct {
		name string
		page int
		ok   bool
	}{
		{"doc_page_1_Im0.png", 1, true},
		{"scan_page_12_Im3.jpg", 12, true},
		{"page_2_image_1.png", 2, true},
		{"notes.txt", 0, false},
		{"page_x_Im0.png", 0, false},
	}
	for _, tt := range tests {
		page, ok := pageFromExtractName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.page, page, tt.name)
		}
	}
}

func TestPathsReturnsCopy(t *testing.T) {
	ps := &PageSet{paths: []string{"a", "b"}}
	got := ps.Paths()
	got[0] = "mutated"
	assert.Equal(t, "a", ps.Paths()[0])
}
