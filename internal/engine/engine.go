// Package engine defines the OCR collaborator seam: the interface the
// runner drives, an ONNX Runtime adapter and a scripted mock for tests.
// Engines are explicitly constructed and passed in by the driver; there is
// no process-wide cached instance.
package engine

import (
	"context"
	"image"

	"github.com/textsift/textsift/internal/aggregate"
)

// Engine produces raw detections for one page image and language. A page
// with no recognizable text yields an empty slice, never an error; errors
// are reserved for the engine itself failing.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, lang string) ([]aggregate.Detection, error)
	Languages() []string
	Close() error
}
