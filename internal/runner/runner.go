// Package runner orchestrates one document-processing run: session
// allocation, rasterization, per-page engine passes, deduplication,
// aggregation, exports and best-effort visualization.
package runner

import (
	"fmt"
	"time"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/common"
	"github.com/textsift/textsift/internal/dedup"
	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/preprocess"
	"github.com/textsift/textsift/internal/session"
)

// Export format names accepted by WithExportFormats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// PageEvent reports one completed page to an optional progress observer.
type PageEvent struct {
	Page       int `json:"page"`
	Total      int `json:"total"`
	Detections int `json:"detections"`
}

// Config holds the knobs of a run.
type Config struct {
	Languages     []string
	Dedup         dedup.Config
	SessionBase   string
	Formats       []string
	Visualize     bool
	Workers       int
	DPI           int                  // placeholder page resolution; 0 means rasterize.DefaultDPI
	MinDetections int                  // low-yield retry trigger; 0 disables
	RetryVariants []preprocess.Variant // applied in order on low-yield pages
	Progress      func(PageEvent)
}

// Report is the outcome of one completed run. Run stays available so
// callers can search it before the process exits; only the exported
// artifacts persist.
type Report struct {
	Session            *session.Session
	Run                *aggregate.Run
	Stats              aggregate.Statistics
	ZeroDetectionPages []int
	Artifacts          []string
	Duration           time.Duration
	Stages             *common.Stages
}

// Runner drives document runs against one engine. The engine handle is
// provided by the caller; the runner never constructs or caches one.
type Runner struct {
	engine   engine.Engine
	cfg      Config
	sessions *session.Manager
}

// Builder assembles a Runner in the fluent style.
type Builder struct {
	cfg    Config
	engine engine.Engine
}

// NewBuilder starts a builder with defaults: English, threshold 0.8,
// text+json exports, sequential processing, no retry.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		Languages: []string{"en"},
		Dedup:     dedup.DefaultConfig(),
		Formats:   []string{FormatText, FormatJSON},
	}}
}

// WithEngine sets the OCR engine handle. Required.
func (b *Builder) WithEngine(e engine.Engine) *Builder {
	b.engine = e
	return b
}

// WithLanguages sets the per-page pass languages, in pass order.
func (b *Builder) WithLanguages(langs ...string) *Builder {
	if len(langs) > 0 {
		b.cfg.Languages = langs
	}
	return b
}

// WithDedupThreshold sets the duplicate overlap threshold.
func (b *Builder) WithDedupThreshold(t float64) *Builder {
	b.cfg.Dedup.IoUThreshold = t
	return b
}

// WithSessionBase sets the directory sessions are created under.
func (b *Builder) WithSessionBase(dir string) *Builder {
	b.cfg.SessionBase = dir
	return b
}

// WithExportFormats selects the export artifacts ("text", "json", "csv").
func (b *Builder) WithExportFormats(formats ...string) *Builder {
	if len(formats) > 0 {
		b.cfg.Formats = formats
	}
	return b
}

// WithVisualization enables best-effort annotated pages, summary card and
// histogram.
func (b *Builder) WithVisualization(on bool) *Builder {
	b.cfg.Visualize = on
	return b
}

// WithWorkers enables parallel per-page processing. Appends remain
// serialized in page order regardless of worker count.
func (b *Builder) WithWorkers(n int) *Builder {
	b.cfg.Workers = n
	return b
}

// WithDPI sets the nominal rasterization resolution.
func (b *Builder) WithDPI(dpi int) *Builder {
	b.cfg.DPI = dpi
	return b
}

// WithPreprocessRetry re-runs low-yield pages (fewer than minDetections
// merged results) through the given image variants, merging all passes.
func (b *Builder) WithPreprocessRetry(minDetections int, variants ...preprocess.Variant) *Builder {
	b.cfg.MinDetections = minDetections
	if len(variants) > 0 {
		b.cfg.RetryVariants = variants
	} else {
		b.cfg.RetryVariants = preprocess.Variants()
	}
	return b
}

// WithProgress registers a per-page completion observer.
func (b *Builder) WithProgress(fn func(PageEvent)) *Builder {
	b.cfg.Progress = fn
	return b
}

// Build validates the configuration and constructs the Runner.
func (b *Builder) Build() (*Runner, error) {
	if b.engine == nil {
		return nil, fmt.Errorf("runner requires an engine")
	}
	if len(b.cfg.Languages) == 0 {
		return nil, fmt.Errorf("runner requires at least one language")
	}
	if err := b.cfg.Dedup.Validate(); err != nil {
		return nil, fmt.Errorf("dedup config: %w", err)
	}
	for _, f := range b.cfg.Formats {
		switch f {
		case FormatText, FormatJSON, FormatCSV:
		default:
			return nil, fmt.Errorf("unknown export format %q", f)
		}
	}
	if b.cfg.MinDetections < 0 {
		return nil, fmt.Errorf("min detections %d is negative", b.cfg.MinDetections)
	}
	return &Runner{
		engine:   b.engine,
		cfg:      b.cfg,
		sessions: session.NewManager(b.cfg.SessionBase),
	}, nil
}
