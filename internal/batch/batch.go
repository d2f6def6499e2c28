// Package batch drives one document run per discovered file, bounding
// per-file concurrency with an errgroup. Each file gets its own session;
// one file failing does not stop the others.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/textsift/textsift/internal/runner"
)

// Config holds batch driver options.
type Config struct {
	Recursive bool
	Pattern   string // glob applied to base names, empty for all
	Workers   int    // concurrent files; <= 1 means sequential
}

// FileResult is one file's outcome.
type FileResult struct {
	Path     string
	Report   *runner.Report
	Err      error
	Duration time.Duration
}

// Result collects a whole batch.
type Result struct {
	Files    []FileResult
	Duration time.Duration
}

// Process runs every discovered document through the runner. Per-file
// failures are collected in the result; only context cancellation aborts
// the batch early.
func Process(ctx context.Context, r *runner.Runner, args []string, cfg Config) (*Result, error) {
	paths, err := Discover(args, cfg.Recursive, cfg.Pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no processable documents found")
	}

	start := time.Now()
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t0 := time.Now()
			report, err := r.ProcessDocument(gctx, path)
			if err != nil {
				slog.Warn("batch file failed", "path", path, "error", err)
			}
			mu.Lock()
			results[i] = FileResult{Path: path, Report: report, Err: err, Duration: time.Since(t0)}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Files: results, Duration: time.Since(start)}, nil
}

// Succeeded returns the count of files that completed.
func (r *Result) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the failed file results.
func (r *Result) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// WriteSummary renders the per-file table and totals.
func (r *Result) WriteSummary(w io.Writer) {
	files := make([]FileResult, len(r.Files))
	copy(files, r.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var totalPages, totalDets int
	for _, f := range files {
		if f.Err != nil {
			fmt.Fprintf(w, "FAIL  %s: %v\n", f.Path, f.Err)
			continue
		}
		stats := f.Report.Stats
		fmt.Fprintf(w, "OK    %s: %d pages, %d detections, %v -> %s\n",
			f.Path, stats.PageCount, stats.TotalDetections,
			f.Duration.Round(time.Millisecond), f.Report.Session.Path)
		totalPages += stats.PageCount
		totalDets += stats.TotalDetections
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "%d/%d files succeeded, %d pages, %d detections, %v total\n",
		r.Succeeded(), len(r.Files), totalPages, totalDets,
		r.Duration.Round(time.Millisecond))
}
