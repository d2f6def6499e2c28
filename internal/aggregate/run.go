package aggregate

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/textsift/textsift/internal/geometry"
)

// PageResult is one page's finalized state: its 1-based index, the
// detection set after deduplication, the source image identity and the
// time the page was appended. Immutable once stored.
type PageResult struct {
	Page       int         `json:"page"`
	Detections []Detection `json:"detections"`
	ImagePath  string      `json:"image_path"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Texts returns the page's recognized strings in detection order.
func (p PageResult) Texts() []string {
	out := make([]string, len(p.Detections))
	for i, d := range p.Detections {
		out[i] = d.Text
	}
	return out
}

// AvgConfidence returns the mean confidence of the page's detections,
// or 0 for a page with no detections.
func (p PageResult) AvgConfidence() float64 {
	if len(p.Detections) == 0 {
		return 0
	}
	var sum float64
	for _, d := range p.Detections {
		sum += d.Confidence
	}
	return sum / float64(len(p.Detections))
}

// Statistics summarizes a run's accumulated detections. All confidence
// figures are exactly 0 when no detections exist; "no text found" is a
// normal outcome, not an error.
type Statistics struct {
	PageCount       int     `json:"total_pages"`
	TotalDetections int     `json:"total_text_regions"`
	MeanConfidence  float64 `json:"average_confidence"`
	MinConfidence   float64 `json:"min_confidence"`
	MaxConfidence   float64 `json:"max_confidence"`
}

// Match is one search hit, ordered by page then by position within the page.
type Match struct {
	Page       int          `json:"page"`
	Index      int          `json:"text_index"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Box        geometry.Box `json:"box"`
}

// Run owns the ordered sequence of page results for one document-processing
// run. Page indices are strictly increasing starting at 1. A Run is mutated
// by exactly one goroutine; callers that process pages concurrently must
// serialize Append themselves.
type Run struct {
	source string
	pages  []PageResult
}

// NewRun creates an empty run for the given source document identity.
func NewRun(source string) *Run {
	return &Run{source: source}
}

// Source returns the source document identity the run was created with.
func (r *Run) Source() string { return r.source }

// Append stores one page's deduplicated detections. The page index must be
// exactly one past the previously appended index (1 for the first page);
// anything else returns a *SequenceError. Detections are validated before
// storage and a *ValidationError rejects the whole append. The stored
// PageResult carries a timestamp captured at call time.
func (r *Run) Append(pageIndex int, dets []Detection, imagePath string) error {
	want := len(r.pages) + 1
	if pageIndex != want {
		return &SequenceError{Got: pageIndex, Want: want}
	}
	if err := ValidateAll(dets); err != nil {
		return err
	}

	stored := make([]Detection, len(dets))
	copy(stored, dets)
	r.pages = append(r.pages, PageResult{
		Page:       pageIndex,
		Detections: stored,
		ImagePath:  imagePath,
		Timestamp:  time.Now(),
	})
	return nil
}

// PageCount returns the number of appended pages.
func (r *Run) PageCount() int { return len(r.pages) }

// Pages returns the appended page results in page order. The returned slice
// is a copy; the page contents are shared and must be treated as read-only.
func (r *Run) Pages() []PageResult {
	out := make([]PageResult, len(r.pages))
	copy(out, r.pages)
	return out
}

// Statistics computes the run summary by flattening every stored page's
// confidences. Derived on demand, never cached.
func (r *Run) Statistics() Statistics {
	stats := Statistics{PageCount: len(r.pages)}

	var sum float64
	for _, p := range r.pages {
		for _, d := range p.Detections {
			if stats.TotalDetections == 0 {
				stats.MinConfidence = d.Confidence
				stats.MaxConfidence = d.Confidence
			} else {
				if d.Confidence < stats.MinConfidence {
					stats.MinConfidence = d.Confidence
				}
				if d.Confidence > stats.MaxConfidence {
					stats.MaxConfidence = d.Confidence
				}
			}
			sum += d.Confidence
			stats.TotalDetections++
		}
	}
	if stats.TotalDetections > 0 {
		stats.MeanConfidence = sum / float64(stats.TotalDetections)
	}
	return stats
}

// AllText returns every recognized string in page order, preserving each
// page's internal order.
func (r *Run) AllText() []string {
	var out []string
	for _, p := range r.pages {
		for _, d := range p.Detections {
			out = append(out, d.Text)
		}
	}
	return out
}

// ZeroDetectionPages returns the indices of pages that produced no
// detections, in page order.
func (r *Run) ZeroDetectionPages() []int {
	var out []int
	for _, p := range r.pages {
		if len(p.Detections) == 0 {
			out = append(out, p.Page)
		}
	}
	return out
}

// Search returns every detection whose text contains term as a substring,
// in page order then within-page order. The default mode lowercases both
// sides with Unicode-aware casing; caseSensitive matches verbatim.
func (r *Run) Search(term string, caseSensitive bool) []Match {
	lower := cases.Lower(language.Und)
	needle := term
	if !caseSensitive {
		needle = lower.String(term)
	}

	var out []Match
	for _, p := range r.pages {
		for i, d := range p.Detections {
			haystack := d.Text
			if !caseSensitive {
				haystack = lower.String(d.Text)
			}
			if strings.Contains(haystack, needle) {
				out = append(out, Match{
					Page:       p.Page,
					Index:      i,
					Text:       d.Text,
					Confidence: d.Confidence,
					Box:        d.Box,
				})
			}
		}
	}
	return out
}
