// Package render produces the best-effort visual artifacts of a run:
// annotated page images, a top-detections summary card and a confidence
// histogram. Rendering failures never abort a run; callers log and move on.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/textsift/textsift/internal/aggregate"
)

var (
	boxColor   = color.RGBA{G: 200, A: 255}
	labelColor = color.RGBA{R: 200, A: 255}
	inkColor   = color.RGBA{A: 255}
	barColor   = color.RGBA{R: 70, G: 130, B: 180, A: 255}
)

// AnnotatePage returns an RGBA copy of the page with each detection's box
// outlined and numbered in detection order.
func AnnotatePage(img image.Image, dets []aggregate.Detection) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}

	for i, d := range dets {
		rect := d.Box.ToRect(dst.Bounds())
		drawRect(dst, rect, boxColor, 2)
		drawLabel(dst, rect.Min.X+2, rect.Min.Y-2, itoa(i+1), labelColor)
	}
	return dst
}

// drawRect outlines a rectangle with the given stroke thickness, clamped
// to the image bounds.
func drawRect(dst draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setClamped(dst, x, rect.Min.Y+t, col)
			setClamped(dst, x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setClamped(dst, rect.Min.X+t, y, col)
			setClamped(dst, rect.Max.X-1-t, y, col)
		}
	}
}

func setClamped(dst draw.Image, x, y int, col color.Color) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.Set(x, y, col)
	}
}

// drawLabel renders text with the fixed 7x13 face; (x, y) is the baseline
// origin. Labels falling above the image are nudged inside.
func drawLabel(dst draw.Image, x, y int, text string, col color.Color) {
	face := basicfont.Face7x13
	if y < face.Height {
		y = face.Height
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
