package runner

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/common"
	"github.com/textsift/textsift/internal/dedup"
	"github.com/textsift/textsift/internal/export"
	"github.com/textsift/textsift/internal/preprocess"
	"github.com/textsift/textsift/internal/rasterize"
	"github.com/textsift/textsift/internal/render"
	"github.com/textsift/textsift/internal/session"
)

// pageOutcome carries one page's merged detections to the collector, which
// owns all Run mutation.
type pageOutcome struct {
	page   int
	dets   []aggregate.Detection
	img    image.Image // nil when the page image could not be loaded
	imgErr error
}

// ProcessDocument runs the whole pipeline for one source document. Session
// creation failure and out-of-order appends are fatal; per-page engine and
// image failures degrade to zero-detection pages and the run completes.
func (r *Runner) ProcessDocument(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	stages := common.NewStages()

	sess, err := r.sessions.Create(path)
	if err != nil {
		return nil, err
	}
	slog.Info("session created", "path", sess.Path, "source", path)

	t := common.StartTimer()
	pages, err := rasterize.Open(ctx, path, r.cfg.DPI)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", path, err)
	}
	defer func() {
		if cerr := pages.Cleanup(); cerr != nil {
			slog.Warn("page set cleanup failed", "error", cerr)
		}
	}()
	stages.Add("rasterize", t.Elapsed())

	run := aggregate.NewRun(path)
	paths := pages.Paths()

	t = common.StartTimer()
	if err := r.processPages(ctx, sess, run, paths); err != nil {
		return nil, err
	}
	stages.Add("pages", t.Elapsed())

	t = common.StartTimer()
	artifacts, err := r.export(sess, run)
	if err != nil {
		return nil, err
	}
	stages.Add("export", t.Elapsed())

	if r.cfg.Visualize {
		t = common.StartTimer()
		if err := render.SaveSummary(sess, run); err != nil {
			slog.Warn("summary render failed", "error", err)
		} else {
			artifacts = append(artifacts, sess.File(render.SummaryName))
		}
		if err := render.SaveHistogram(sess, run); err != nil {
			slog.Warn("histogram render failed", "error", err)
		} else {
			artifacts = append(artifacts, sess.File(render.HistogramName))
		}
		stages.Add("render", t.Elapsed())
	}

	report := &Report{
		Session:            sess,
		Run:                run,
		Stats:              run.Statistics(),
		ZeroDetectionPages: run.ZeroDetectionPages(),
		Artifacts:          artifacts,
		Duration:           time.Since(start),
		Stages:             stages,
	}
	slog.Info("run complete",
		"source", path,
		"pages", report.Stats.PageCount,
		"detections", report.Stats.TotalDetections,
		"duration", report.Duration,
		"stages", stages.String())
	return report, nil
}

func (r *Runner) processPages(ctx context.Context, sess *session.Session,
	run *aggregate.Run, paths []string,
) error {
	total := len(paths)
	if r.cfg.Workers > 1 && total > 1 {
		return r.processPagesParallel(ctx, sess, run, paths)
	}

	for i, imgPath := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome := r.processPage(ctx, i+1, imgPath)
		if err := r.collect(sess, run, outcome, total, imgPath); err != nil {
			return err
		}
	}
	return nil
}

// processPagesParallel fans pages out to a worker pool; the collector
// appends in page order, the only synchronization point the Run needs.
func (r *Runner) processPagesParallel(ctx context.Context, sess *session.Session,
	run *aggregate.Run, paths []string,
) error {
	total := len(paths)
	jobs := make(chan int, total)
	results := make(chan pageOutcome, total)

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results <- pageOutcome{page: idx + 1, imgErr: ctx.Err()}
					continue
				}
				results <- r.processPage(ctx, idx+1, paths[idx])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]pageOutcome, total)
	next := 1
	for outcome := range results {
		pending[outcome.page] = outcome
		for {
			o, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			// The results channel is buffered to the page count, so
			// returning early never blocks a worker.
			if err := r.collect(sess, run, o, total, paths[next-1]); err != nil {
				return err
			}
			next++
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// collect appends one page's outcome and performs best-effort rendering.
func (r *Runner) collect(sess *session.Session, run *aggregate.Run,
	outcome pageOutcome, total int, imgPath string,
) error {
	if err := run.Append(outcome.page, outcome.dets, imgPath); err != nil {
		return fmt.Errorf("append page %d: %w", outcome.page, err)
	}
	if len(outcome.dets) == 0 {
		slog.Info("page yielded no detections", "page", outcome.page)
	}

	if r.cfg.Visualize && outcome.img != nil {
		if err := render.SaveAnnotated(sess, outcome.page, outcome.img, outcome.dets); err != nil {
			slog.Warn("page annotation failed", "page", outcome.page, "error", err)
		}
	}
	if r.cfg.Progress != nil {
		r.cfg.Progress(PageEvent{Page: outcome.page, Total: total, Detections: len(outcome.dets)})
	}
	return nil
}

// processPage produces one page's merged detection set. Engine or image
// failures degrade to an empty page; only context cancellation escalates.
func (r *Runner) processPage(ctx context.Context, page int, imgPath string) pageOutcome {
	img, err := imaging.Open(imgPath)
	if err != nil {
		slog.Warn("page image unreadable", "page", page, "path", imgPath, "error", err)
		return pageOutcome{page: page, dets: []aggregate.Detection{}, imgErr: err}
	}

	passes := r.languagePasses(ctx, page, img)
	merged := r.merge(page, passes)

	if r.cfg.MinDetections > 0 && len(merged) < r.cfg.MinDetections {
		merged = r.retryWithVariants(ctx, page, img, passes, merged)
	}

	return pageOutcome{page: page, dets: merged, img: img}
}

// languagePasses runs one engine pass per configured language. A failing
// pass logs a warning and contributes an empty set.
func (r *Runner) languagePasses(ctx context.Context, page int, img image.Image) [][]aggregate.Detection {
	passes := make([][]aggregate.Detection, 0, len(r.cfg.Languages))
	for _, lang := range r.cfg.Languages {
		dets, err := r.engine.Recognize(ctx, img, lang)
		if err != nil {
			slog.Warn("engine pass failed", "page", page, "lang", lang, "error", err)
			dets = nil
		}
		passes = append(passes, dets)
	}
	return passes
}

// merge folds all passes through the deduplicator. A validation failure
// means the engine emitted a malformed detection; the page degrades to
// empty rather than poisoning the run.
func (r *Runner) merge(page int, passes [][]aggregate.Detection) []aggregate.Detection {
	merged, err := dedup.MergePasses(passes, r.cfg.Dedup)
	if err != nil {
		slog.Warn("dropping malformed page detections", "page", page, "error", err)
		return []aggregate.Detection{}
	}
	return merged
}

// retryWithVariants re-runs the engine over preprocessing variants and
// re-merges everything seen so far. Original-pass results stay first so
// they win dedup ties.
func (r *Runner) retryWithVariants(ctx context.Context, page int, img image.Image,
	passes [][]aggregate.Detection, merged []aggregate.Detection,
) []aggregate.Detection {
	for _, v := range r.cfg.RetryVariants {
		if v == preprocess.Original {
			continue
		}
		if ctx.Err() != nil {
			return merged
		}
		transformed, err := preprocess.Apply(img, v)
		if err != nil {
			slog.Warn("preprocess variant failed", "page", page, "variant", string(v), "error", err)
			continue
		}
		slog.Debug("low-yield retry", "page", page, "variant", string(v), "have", len(merged))
		passes = append(passes, r.languagePasses(ctx, page, transformed)...)
		merged = r.merge(page, passes)
		if len(merged) >= r.cfg.MinDetections {
			break
		}
	}
	return merged
}

// export writes the configured artifacts and returns their paths.
func (r *Runner) export(sess *session.Session, run *aggregate.Run) ([]string, error) {
	var artifacts []string
	for _, f := range r.cfg.Formats {
		var (
			err  error
			name string
		)
		switch f {
		case FormatText:
			name = export.TextReportName
			err = export.SaveTextReport(sess, run)
		case FormatJSON:
			name = export.JSONDumpName
			err = export.SaveJSON(sess, run)
		case FormatCSV:
			name = export.CSVName
			err = export.SaveCSV(sess, run)
		}
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", f, err)
		}
		artifacts = append(artifacts, sess.File(name))
	}
	return artifacts, nil
}
