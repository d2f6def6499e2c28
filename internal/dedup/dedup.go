// Package dedup merges redundant OCR detections that cover the same visual
// region, as produced by multiple language passes or preprocessing attempts
// over one page. Duplicates are identified purely by box overlap; the
// highest-confidence variant wins.
package dedup

import (
	"fmt"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/geometry"
)

// DefaultIoUThreshold is the overlap ratio above which two detections are
// considered duplicates of one another.
const DefaultIoUThreshold = 0.8

// Config holds deduplication parameters.
type Config struct {
	// IoUThreshold is exclusive: an overlap exactly equal to the threshold
	// does not count as a duplicate.
	IoUThreshold float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
}

// DefaultConfig returns the default deduplication configuration.
func DefaultConfig() Config {
	return Config{IoUThreshold: DefaultIoUThreshold}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("iou_threshold %v outside [0, 1]", c.IoUThreshold)
	}
	return nil
}

// Merge collapses duplicates out of a combined detection list. The scan is
// a single pass: each incoming detection is compared against the accepted
// list in order and folded into the first accepted entry whose overlap
// ratio exceeds the threshold. A strictly higher confidence replaces the
// accepted entry's text, confidence and box in place without moving it, so
// output order is the order in which distinct regions were first seen.
//
// Merge is a pure function with no shared state and is safe to call
// concurrently from independent page workers. Input detections are
// validated first; a malformed entry rejects the whole call with a
// *aggregate.ValidationError.
func Merge(dets []aggregate.Detection, cfg Config) ([]aggregate.Detection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := aggregate.ValidateAll(dets); err != nil {
		return nil, err
	}

	accepted := make([]aggregate.Detection, 0, len(dets))
	for _, d := range dets {
		matched := false
		for i := range accepted {
			if geometry.OverlapRatio(d.Box, accepted[i].Box) > cfg.IoUThreshold {
				if d.Confidence > accepted[i].Confidence {
					accepted[i] = d
				}
				matched = true
				break
			}
		}
		if !matched {
			accepted = append(accepted, d)
		}
	}
	return accepted, nil
}

// MergePasses concatenates per-language or per-attempt detection sets in
// order and merges the combined list. This is the entry point for
// multi-pass pages: earlier passes win ties because they are seen first.
func MergePasses(passes [][]aggregate.Detection, cfg Config) ([]aggregate.Detection, error) {
	var combined []aggregate.Detection
	for _, pass := range passes {
		combined = append(combined, pass...)
	}
	return Merge(combined, cfg)
}
