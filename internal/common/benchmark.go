package common

import (
	"fmt"
	"runtime"
	"time"
)

// MemoryStats is a snapshot of allocator counters taken around a
// benchmark run.
type MemoryStats struct {
	Alloc         uint64
	TotalAlloc    uint64
	Sys           uint64
	NumGC         uint32
	GCCPUFraction float64
}

// CaptureMemoryStats reads the current allocator counters.
func CaptureMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:         m.Alloc,
		TotalAlloc:    m.TotalAlloc,
		Sys:           m.Sys,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
	}
}

// String returns a compact rendering of the snapshot.
func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d (%.2f%% CPU)",
		m.Alloc/1024,
		m.TotalAlloc/1024,
		m.Sys/1024,
		m.NumGC,
		m.GCCPUFraction*100)
}

// BenchmarkResult holds one measured benchmark pass.
type BenchmarkResult struct {
	Name         string
	Duration     time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Iterations   int
}

// Throughput returns iterations per second for the pass.
func (r BenchmarkResult) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Iterations) / r.Duration.Seconds()
}

// String renders the result for benchmark tool output.
func (r BenchmarkResult) String() string {
	return fmt.Sprintf("%s: %d iterations in %v (%.0f/s)",
		r.Name, r.Iterations, r.Duration, r.Throughput())
}
