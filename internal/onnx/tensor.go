// Package onnx holds the ONNX Runtime glue shared by the engine adapter:
// image-to-tensor conversion and runtime/GPU session configuration.
package onnx

import (
	"fmt"
	"image"

	"github.com/textsift/textsift/internal/mempool"
)

// Tensor is a float32 tensor prepared for ONNX input, row-major NCHW.
// Data may be pool-backed; call Release when inference is done.
type Tensor struct {
	Data  []float32
	Shape []int64 // [N, C, H, W]

	pooled bool
}

// Release returns a pool-backed buffer to the pool. Safe on zero Tensor.
func (t *Tensor) Release() {
	if t.pooled && t.Data != nil {
		mempool.PutFloat32(t.Data)
		t.Data = nil
	}
}

// Per-channel normalization applied during conversion, matching the
// mean/std the detection and recognition models were trained with.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)

// FromImage converts an image into a normalized [1, 3, H, W] tensor. The
// backing buffer comes from the mempool; callers must Release it after the
// session run copies it out.
func FromImage(img image.Image) Tensor {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := w * h
	data := mempool.GetFloat32(3 * plane)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*w + x
			data[idx] = (float32(r)/65535 - channelMean[0]) / channelStd[0]
			data[plane+idx] = (float32(g)/65535 - channelMean[1]) / channelStd[1]
			data[2*plane+idx] = (float32(b)/65535 - channelMean[2]) / channelStd[2]
		}
	}
	return Tensor{
		Data:   data,
		Shape:  []int64{1, 3, int64(h), int64(w)},
		pooled: true,
	}
}

// ValidateNCHW ensures a shape is [N, C, H, W] with positive dimensions.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// Verify checks that the data length matches the NCHW shape.
func (t Tensor) Verify() error {
	if err := ValidateNCHW(t.Shape); err != nil {
		return err
	}
	expected := int(t.Shape[0] * t.Shape[1] * t.Shape[2] * t.Shape[3])
	if len(t.Data) != expected {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v",
			len(t.Data), expected, t.Shape)
	}
	return nil
}
