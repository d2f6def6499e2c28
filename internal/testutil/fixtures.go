package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/geometry"
)

// Det builds one detection with an explicit box.
func Det(text string, confidence, x1, y1, x2, y2 float64) aggregate.Detection {
	return aggregate.Detection{
		Text:       text,
		Confidence: confidence,
		Box:        geometry.Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2},
	}
}

// Row builds n non-overlapping detections laid out left to right on one
// line, confidences descending from 0.95 in steps of 0.01.
func Row(n int) []aggregate.Detection {
	out := make([]aggregate.Detection, n)
	for i := 0; i < n; i++ {
		x := float64(i * 60)
		out[i] = Det(fmt.Sprintf("word%d", i+1), 0.95-float64(i)*0.01, x, 0, x+50, 20)
	}
	return out
}

// PopulatedRun builds a run with the given per-page detection sets already
// appended in order.
func PopulatedRun(t *testing.T, source string, pages ...[]aggregate.Detection) *aggregate.Run {
	t.Helper()
	run := aggregate.NewRun(source)
	for i, dets := range pages {
		require.NoError(t, run.Append(i+1, dets, fmt.Sprintf("page_%03d.png", i+1)))
	}
	return run
}
