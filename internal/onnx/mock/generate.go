// Package mock generates synthetic model outputs for engine tests:
// detection score maps and recognition logits with known ground truth.
package mock

import "math"

// ScoreMap is a synthetic detection output with shape [1, 1, H, W].
type ScoreMap struct {
	Data   []float32
	Width  int
	Height int
}

// UniformMap fills a WxH map with a single value clamped to [0, 1].
func UniformMap(w, h int, value float32) ScoreMap {
	if w <= 0 || h <= 0 {
		return ScoreMap{}
	}
	data := make([]float32, w*h)
	for i := range data {
		data[i] = clamp01(value)
	}
	return ScoreMap{Data: data, Width: w, Height: h}
}

// BlobMap places a Gaussian blob of the given peak at (cx, cy). Engine
// postprocessing should recover one region per blob above threshold.
func BlobMap(w, h int, cx, cy float64, peak float32, sigma float64) ScoreMap {
	if w <= 0 || h <= 0 {
		return ScoreMap{}
	}
	data := make([]float32, w*h)
	inv := 1.0 / (2.0 * sigma * sigma)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			data[y*w+x] = clamp01(float32(math.Exp(-(dx*dx+dy*dy)*inv)) * peak)
		}
	}
	return ScoreMap{Data: data, Width: w, Height: h}
}

// TwoRegionMap fills two disjoint rectangles with hi against a lo
// background, mimicking two text lines on a page.
func TwoRegionMap(w, h int, hi, lo float32) ScoreMap {
	m := UniformMap(w, h, lo)
	fill := func(x1, y1, x2, y2 int) {
		for y := y1; y < y2 && y < h; y++ {
			for x := x1; x < x2 && x < w; x++ {
				m.Data[y*w+x] = clamp01(hi)
			}
		}
	}
	fill(w/8, h/8, w/2-w/8, h/2-h/8)
	fill(w/2+w/8, h/2+h/8, w-w/8, h-h/8)
	return m
}

// Logits is synthetic recognition output, shape [1, T, C].
type Logits struct {
	Data  []float32
	Shape []int64
}

// GreedyPathLogits builds logits whose per-step argmax follows indices,
// so a greedy CTC decode over them is fully predictable. Class 0 is the
// CTC blank by convention.
func GreedyPathLogits(indices []int, classes int, high, low float32) Logits {
	if classes <= 0 || len(indices) == 0 {
		return Logits{}
	}
	t := len(indices)
	data := make([]float32, t*classes)
	for ti, c := range indices {
		for cls := 0; cls < classes; cls++ {
			v := low
			if cls == c {
				v = high
			}
			data[ti*classes+cls] = v
		}
	}
	return Logits{Data: data, Shape: []int64{1, int64(t), int64(classes)}}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
