// Package aggregate accumulates deduplicated per-page OCR detections into
// an ordered run with derived statistics, combined text and search.
package aggregate

import (
	"fmt"

	"github.com/textsift/textsift/internal/geometry"
)

// Detection is one recognized text instance: the decoded string, the
// recognition confidence and the bounding box in image pixel space.
type Detection struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Box        geometry.Box `json:"box"`
}

// Validate checks that the detection is well formed: confidence within
// [0, 1] and a box with strictly positive extent on both axes.
func (d Detection) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0, 1]", d.Confidence)
	}
	if !d.Box.IsValid() {
		return fmt.Errorf("box (%v, %v, %v, %v) has no positive extent",
			d.Box.MinX, d.Box.MinY, d.Box.MaxX, d.Box.MaxY)
	}
	return nil
}

// ValidateAll validates a detection list and returns a *ValidationError
// identifying the first malformed entry, or nil if all entries are valid.
func ValidateAll(dets []Detection) error {
	for i, d := range dets {
		if err := d.Validate(); err != nil {
			return &ValidationError{Index: i, Reason: err.Error()}
		}
	}
	return nil
}
