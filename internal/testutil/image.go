package testutil

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// TextPageImage draws a white page with black horizontal bars where text
// lines would sit. Deterministic; suitable for engine and render tests.
func TextPageImage(w, h, lines int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	if lines <= 0 {
		return img
	}
	lineH := h / (lines * 2)
	if lineH < 1 {
		lineH = 1
	}
	for i := 0; i < lines; i++ {
		top := i * 2 * lineH
		for y := top; y < top+lineH && y < h; y++ {
			for x := w / 10; x < w-w/10; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

// SavePNG writes an image under dir and returns its path.
func SavePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}
