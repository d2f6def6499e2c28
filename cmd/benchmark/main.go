// Command benchmark measures merge and aggregation throughput over
// synthetic detection sets, without any model or I/O involvement.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/common"
	"github.com/textsift/textsift/internal/dedup"
	"github.com/textsift/textsift/internal/geometry"
)

type result struct {
	Name          string  `json:"name"`
	Iterations    int     `json:"iterations"`
	Detections    int     `json:"detections"`
	TotalMs       float64 `json:"total_ms"`
	PerOpMicros   float64 `json:"per_op_us"`
	OpsPerSecond  float64 `json:"ops_per_second"`
	AllocDeltaKB  uint64  `json:"alloc_delta_kb"`
	GCCycles      uint32  `json:"gc_cycles"`
	MemoryAfter   string  `json:"memory_after"`
	MemorySummary string  `json:"summary"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		detections = flag.Int("detections", 500, "detections per synthetic page")
		overlap    = flag.Float64("overlap", 0.3, "fraction of detections overlapping a neighbor")
		iterations = flag.Int("iterations", 1000, "iterations per benchmark")
		threshold  = flag.Float64("threshold", dedup.DefaultIoUThreshold, "merge overlap threshold")
		outputFile = flag.String("output", "", "write results as JSON to this file")
		seed       = flag.Int64("seed", 42, "rng seed for reproducible sets")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	base := syntheticPage(rng, *detections, *overlap)
	second := syntheticPage(rng, *detections, *overlap)

	cfg := dedup.Config{IoUThreshold: *threshold}
	results := []result{
		bench("merge/single-pass", *iterations, *detections, func() {
			_, _ = dedup.Merge(base, cfg)
		}),
		bench("merge/two-pass", *iterations, *detections, func() {
			_, _ = dedup.MergePasses([][]aggregate.Detection{base, second}, cfg)
		}),
		bench("aggregate/append+stats", *iterations, *detections, func() {
			run := aggregate.NewRun("bench")
			_ = run.Append(1, base, "")
			_ = run.Statistics()
		}),
	}

	for _, r := range results {
		fmt.Printf("%-24s %8d iters  %10.2f us/op  %12.0f ops/s\n",
			r.Name, r.Iterations, r.PerOpMicros, r.OpsPerSecond)
	}

	if *outputFile != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			slog.Error("marshal results", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outputFile, data, 0o600); err != nil {
			slog.Error("write results", "error", err)
			os.Exit(1)
		}
		slog.Info("results written", "path", *outputFile)
	}
}

func bench(name string, iterations, detections int, fn func()) result {
	before := common.CaptureMemoryStats()
	timer := common.StartTimer()
	for i := 0; i < iterations; i++ {
		fn()
	}
	total := timer.Elapsed()
	after := common.CaptureMemoryStats()

	pass := common.BenchmarkResult{
		Name:         name,
		Duration:     total,
		Iterations:   iterations,
		MemoryBefore: before,
		MemoryAfter:  after,
	}

	perOp := total.Seconds() / float64(iterations)
	return result{
		Name:          name,
		Iterations:    iterations,
		Detections:    detections,
		TotalMs:       float64(total.Milliseconds()),
		PerOpMicros:   perOp * 1e6,
		OpsPerSecond:  pass.Throughput(),
		AllocDeltaKB:  (after.TotalAlloc - before.TotalAlloc) / 1024,
		GCCycles:      after.NumGC - before.NumGC,
		MemoryAfter:   after.String(),
		MemorySummary: pass.String(),
	}
}

// syntheticPage lays detections on a grid; a fraction of them gets a
// shifted near-duplicate so the merge path has real work to do.
func syntheticPage(rng *rand.Rand, n int, overlap float64) []aggregate.Detection {
	const cols = 20
	out := make([]aggregate.Detection, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i%cols) * 60
		y := float64(i/cols) * 30
		det := aggregate.Detection{
			Text:       fmt.Sprintf("word_%d", i),
			Confidence: 0.5 + rng.Float64()*0.5,
			Box:        geometry.NewBox(x, y, x+50, y+20),
		}
		if rng.Float64() < overlap && len(out) > 0 {
			dup := out[len(out)-1]
			dup.Confidence = 0.5 + rng.Float64()*0.5
			out = append(out, dup)
			continue
		}
		out = append(out, det)
	}
	return out
}
