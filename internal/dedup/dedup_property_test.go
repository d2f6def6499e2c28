package dedup

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/geometry"
)

// genGridDetection generates a detection whose 10x10 box sits on a sparse
// grid cell. Boxes from the same cell coincide exactly (true duplicates,
// overlap 1) and boxes from different cells never touch (overlap 0), which
// mirrors the assumption that regions only overlap when they are genuine
// duplicates of one another.
func genGridDetection() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 9),
		gen.IntRange(0, 9),
		gen.Float64Range(0.01, 1.0),
	).Map(func(vals []interface{}) aggregate.Detection {
		col, ok := vals[0].(int)
		if !ok {
			panic("expected int")
		}
		row, ok := vals[1].(int)
		if !ok {
			panic("expected int")
		}
		conf, ok := vals[2].(float64)
		if !ok {
			panic("expected float64")
		}
		x := float64(col * 20)
		y := float64(row * 20)
		return aggregate.Detection{
			Text:       "t",
			Confidence: conf,
			Box:        geometry.NewBox(x, y, x+10, y+10),
		}
	})
}

// genGridDetections generates a slice of grid-aligned detections.
func genGridDetections() gopter.Gen {
	return gen.SliceOfN(20, genGridDetection())
}

// TestMerge_Idempotent verifies merging an already merged list changes nothing.
func TestMerge_Idempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("Merge(Merge(xs)) == Merge(xs)", prop.ForAll(
		func(dets []aggregate.Detection, threshold float64) bool {
			cfg := Config{IoUThreshold: threshold}
			once, err := Merge(dets, cfg)
			if err != nil {
				return false
			}
			twice, err := Merge(once, cfg)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(once, twice)
		},
		genGridDetections(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestMerge_NeverGrows verifies output is never longer than input.
func TestMerge_NeverGrows(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("len(Merge(xs)) <= len(xs)", prop.ForAll(
		func(dets []aggregate.Detection, threshold float64) bool {
			out, err := Merge(dets, Config{IoUThreshold: threshold})
			if err != nil {
				return false
			}
			return len(out) <= len(dets)
		},
		genGridDetections(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestMerge_OutputSubsetOfInput verifies the merge never invents detections:
// every surviving entry equals some input entry field for field.
func TestMerge_OutputSubsetOfInput(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every output entry appears in the input", prop.ForAll(
		func(dets []aggregate.Detection, threshold float64) bool {
			out, err := Merge(dets, Config{IoUThreshold: threshold})
			if err != nil {
				return false
			}
			for _, u := range out {
				found := false
				for _, d := range dets {
					if u == d {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			return true
		},
		genGridDetections(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestMerge_NoSurvivingOverlaps verifies no accepted pair exceeds the threshold.
func TestMerge_NoSurvivingOverlaps(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("no pair in output overlaps above threshold", prop.ForAll(
		func(dets []aggregate.Detection, threshold float64) bool {
			out, err := Merge(dets, Config{IoUThreshold: threshold})
			if err != nil {
				return false
			}
			for i := range out {
				for j := i + 1; j < len(out); j++ {
					if geometry.OverlapRatio(out[i].Box, out[j].Box) > threshold {
						return false
					}
				}
			}
			return true
		},
		genGridDetections(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestMerge_KeepsBestConfidencePerRegion verifies each surviving slot holds
// the maximum confidence among the exact duplicates folded into it.
func TestMerge_KeepsBestConfidencePerRegion(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("slot confidence is the max over its duplicates", prop.ForAll(
		func(dets []aggregate.Detection, threshold float64) bool {
			out, err := Merge(dets, Config{IoUThreshold: threshold})
			if err != nil {
				return false
			}
			for _, u := range out {
				for _, d := range dets {
					if d.Box == u.Box && d.Confidence > u.Confidence {
						return false
					}
				}
			}
			return true
		},
		genGridDetections(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestMerge_PreservesOrderWithoutOverlap verifies pass-through ordering for
// well-separated detections.
func TestMerge_PreservesOrderWithoutOverlap(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("separated detections keep their relative order", prop.ForAll(
		func(confs []float64) bool {
			dets := make([]aggregate.Detection, len(confs))
			for i, c := range confs {
				// 10x10 boxes spaced 20 apart never overlap.
				x := float64(i * 20)
				dets[i] = aggregate.Detection{
					Text:       "t",
					Confidence: c,
					Box:        geometry.NewBox(x, 0, x+10, 10),
				}
			}

			out, err := Merge(dets, DefaultConfig())
			if err != nil {
				return false
			}
			return reflect.DeepEqual(out, dets)
		},
		gen.SliceOfN(15, gen.Float64Range(0.01, 1.0)),
	))

	properties.TestingRun(t)
}
