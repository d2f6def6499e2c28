// Package preprocess provides the black-box image transforms used for the
// low-yield retry: when a page produces too few detections, the runner
// re-runs the engine over these variants and merges all passes.
package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Variant names one image transform.
type Variant string

// The supported variants, in default retry order.
const (
	Original  Variant = "original"
	Grayscale Variant = "grayscale"
	Contrast  Variant = "contrast"
	Sharpen   Variant = "sharpen"
	Invert    Variant = "invert"
	Threshold Variant = "threshold"
)

// Variants returns the retry order: original first, then increasingly
// aggressive transforms.
func Variants() []Variant {
	return []Variant{Original, Grayscale, Contrast, Sharpen, Invert, Threshold}
}

// Parse validates a variant name.
func Parse(name string) (Variant, error) {
	v := Variant(name)
	switch v {
	case Original, Grayscale, Contrast, Sharpen, Invert, Threshold:
		return v, nil
	}
	return "", fmt.Errorf("unknown preprocess variant %q", name)
}

// Apply returns the transformed image. The input is never mutated; every
// transform works on a copy.
func Apply(img image.Image, v Variant) (image.Image, error) {
	switch v {
	case Original:
		return img, nil
	case Grayscale:
		return imaging.Grayscale(img), nil
	case Contrast:
		return imaging.AdjustContrast(img, 40), nil
	case Sharpen:
		return imaging.Sharpen(img, 2.0), nil
	case Invert:
		return imaging.Invert(img), nil
	case Threshold:
		return binarize(img), nil
	default:
		return nil, fmt.Errorf("unknown preprocess variant %q", v)
	}
}

// binarize produces a black/white image split at the Otsu threshold of the
// grayscale histogram.
func binarize(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()

	var hist [256]int
	total := bounds.Dx() * bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := gray.At(x, y).RGBA()
			hist[r>>8]++
		}
	}

	threshold := otsu(hist, total)

	out := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := gray.At(x, y).RGBA()
			if int(r>>8) < threshold {
				out.Set(x-bounds.Min.X, y-bounds.Min.Y, color.Black)
			}
		}
	}
	return out
}

// otsu picks the threshold maximizing between-class variance.
func otsu(hist [256]int, total int) int {
	if total == 0 {
		return 128
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	best, bestVar := 128, -1.0
	for i, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = i
		}
	}
	return best
}
