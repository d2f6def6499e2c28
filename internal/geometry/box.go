// Package geometry provides axis-aligned box primitives for detection
// bounding boxes: area, intersection, union and overlap ratio.
package geometry

import (
	"image"
	"math"
)

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64 `json:"x1"`
	MinY float64 `json:"y1"`
	MaxX float64 `json:"x2"`
	MaxY float64 `json:"y2"`
}

// NewBox constructs a Box from two corner coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area. Degenerate boxes have area 0.
func (b Box) Area() float64 {
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return 0
	}
	return b.Width() * b.Height()
}

// IsValid reports whether the box has strictly positive extent on both axes.
func (b Box) IsValid() bool {
	return b.MinX < b.MaxX && b.MinY < b.MaxY
}

// ToRect converts a Box to an image.Rectangle, clamped to image bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IntersectionArea returns the area of the intersection of a and b,
// or 0 when they do not overlap.
func IntersectionArea(a, b Box) float64 {
	left := math.Max(a.MinX, b.MinX)
	top := math.Max(a.MinY, b.MinY)
	right := math.Min(a.MaxX, b.MaxX)
	bottom := math.Min(a.MaxY, b.MaxY)

	if left >= right || top >= bottom {
		return 0
	}
	return (right - left) * (bottom - top)
}

// UnionArea returns the area covered by a and b together.
func UnionArea(a, b Box) float64 {
	return a.Area() + b.Area() - IntersectionArea(a, b)
}

// OverlapRatio returns the intersection-over-union of a and b in [0, 1].
// Boxes that do not intersect yield exactly 0, as does a degenerate union
// (both boxes with zero area), so the result is always well defined.
// The ratio is symmetric in its arguments.
func OverlapRatio(a, b Box) float64 {
	intersection := IntersectionArea(a, b)
	if intersection <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - intersection

	if union <= 0 {
		return 0
	}
	return intersection / union
}
