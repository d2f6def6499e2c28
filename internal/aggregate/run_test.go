package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/geometry"
)

func det(text string, conf float64, x1, y1, x2, y2 float64) Detection {
	return Detection{Text: text, Confidence: conf, Box: geometry.NewBox(x1, y1, x2, y2)}
}

func TestAppendSequence(t *testing.T) {
	run := NewRun("doc.pdf")

	require.NoError(t, run.Append(1, []Detection{det("a", 0.9, 0, 0, 10, 10)}, "page_001.png"))
	require.NoError(t, run.Append(2, nil, "page_002.png"))
	assert.Equal(t, 2, run.PageCount())
}

func TestAppendRejectsGap(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, nil, "page_001.png"))

	err := run.Append(3, nil, "page_003.png")
	require.Error(t, err)

	var seqErr *SequenceError
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, 3, seqErr.Got)
	assert.Equal(t, 2, seqErr.Want)
	assert.Equal(t, 1, run.PageCount(), "failed append must not modify the run")
}

func TestAppendFirstPageMustBeOne(t *testing.T) {
	run := NewRun("doc.pdf")

	var seqErr *SequenceError
	err := run.Append(2, nil, "page_002.png")
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, 1, seqErr.Want)
}

func TestAppendRejectsDuplicateIndex(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, nil, "page_001.png"))

	var seqErr *SequenceError
	require.True(t, errors.As(run.Append(1, nil, "page_001.png"), &seqErr))
}

func TestAppendRejectsInvalidDetections(t *testing.T) {
	run := NewRun("doc.pdf")

	bad := []Detection{det("ok", 0.9, 0, 0, 10, 10), {Text: "bad", Confidence: 2, Box: geometry.NewBox(0, 0, 5, 5)}}
	err := run.Append(1, bad, "page_001.png")

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, 1, vErr.Index)
	assert.Equal(t, 0, run.PageCount(), "validation failure must not store the page")
}

func TestAppendStoresCopyAndTimestamp(t *testing.T) {
	run := NewRun("doc.pdf")
	input := []Detection{det("a", 0.9, 0, 0, 10, 10)}
	before := time.Now()
	require.NoError(t, run.Append(1, input, "page_001.png"))

	input[0].Text = "mutated"

	pages := run.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, "a", pages[0].Detections[0].Text)
	assert.Equal(t, "page_001.png", pages[0].ImagePath)
	assert.False(t, pages[0].Timestamp.Before(before))
}

func TestStatisticsEmptyRun(t *testing.T) {
	run := NewRun("doc.pdf")
	stats := run.Statistics()

	assert.Equal(t, 0, stats.PageCount)
	assert.Equal(t, 0, stats.TotalDetections)
	assert.Equal(t, 0.0, stats.MeanConfidence)
	assert.Equal(t, 0.0, stats.MinConfidence)
	assert.Equal(t, 0.0, stats.MaxConfidence)
}

func TestStatisticsAllPagesEmpty(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, nil, "p1"))
	require.NoError(t, run.Append(2, []Detection{}, "p2"))

	stats := run.Statistics()
	assert.Equal(t, 2, stats.PageCount)
	assert.Equal(t, 0, stats.TotalDetections)
	assert.Equal(t, 0.0, stats.MeanConfidence)
	assert.Equal(t, 0.0, stats.MinConfidence)
	assert.Equal(t, 0.0, stats.MaxConfidence)
}

func TestStatisticsValues(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, []Detection{
		det("a", 0.9, 0, 0, 10, 10),
		det("b", 0.5, 20, 0, 30, 10),
	}, "p1"))
	require.NoError(t, run.Append(2, []Detection{
		det("c", 0.7, 0, 0, 10, 10),
	}, "p2"))

	stats := run.Statistics()
	assert.Equal(t, 2, stats.PageCount)
	assert.Equal(t, 3, stats.TotalDetections)
	assert.InDelta(t, 0.7, stats.MeanConfidence, 1e-12)
	assert.Equal(t, 0.5, stats.MinConfidence)
	assert.Equal(t, 0.9, stats.MaxConfidence)
}

func TestAllTextOrder(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, []Detection{
		det("first", 0.9, 0, 0, 10, 10),
		det("second", 0.8, 0, 20, 10, 30),
	}, "p1"))
	require.NoError(t, run.Append(2, []Detection{
		det("third", 0.7, 0, 0, 10, 10),
	}, "p2"))

	assert.Equal(t, []string{"first", "second", "third"}, run.AllText())
}

func TestZeroDetectionPages(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, []Detection{det("a", 0.9, 0, 0, 10, 10)}, "p1"))
	require.NoError(t, run.Append(2, nil, "p2"))
	require.NoError(t, run.Append(3, nil, "p3"))

	assert.Equal(t, []int{2, 3}, run.ZeroDetectionPages())
}

func TestSearchCaseFolding(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, []Detection{
		det("Invoice", 0.95, 0, 0, 50, 20),
		det("Total: 42", 0.90, 0, 30, 50, 50),
	}, "p1"))
	require.NoError(t, run.Append(2, []Detection{
		det("invoice copy", 0.85, 0, 0, 80, 20),
	}, "p2"))

	insensitive := run.Search("invoice", false)
	require.Len(t, insensitive, 2)
	assert.Equal(t, 1, insensitive[0].Page)
	assert.Equal(t, 0, insensitive[0].Index)
	assert.Equal(t, "Invoice", insensitive[0].Text)
	assert.Equal(t, 2, insensitive[1].Page)
	assert.Equal(t, "invoice copy", insensitive[1].Text)

	sensitive := run.Search("invoice", true)
	require.Len(t, sensitive, 1)
	assert.Equal(t, 2, sensitive[0].Page)
}

func TestSearchCarriesConfidenceAndBox(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, []Detection{det("needle", 0.75, 5, 6, 55, 26)}, "p1"))

	hits := run.Search("need", false)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.75, hits[0].Confidence)
	assert.Equal(t, geometry.NewBox(5, 6, 55, 26), hits[0].Box)
}

func TestSearchNoMatches(t *testing.T) {
	run := NewRun("doc.pdf")
	require.NoError(t, run.Append(1, []Detection{det("abc", 0.9, 0, 0, 10, 10)}, "p1"))

	assert.Empty(t, run.Search("zzz", false))
}

func TestPageResultHelpers(t *testing.T) {
	p := PageResult{
		Page: 1,
		Detections: []Detection{
			det("x", 0.4, 0, 0, 10, 10),
			det("y", 0.6, 0, 20, 10, 30),
		},
	}
	assert.Equal(t, []string{"x", "y"}, p.Texts())
	assert.InDelta(t, 0.5, p.AvgConfidence(), 1e-12)

	empty := PageResult{Page: 2}
	assert.Empty(t, empty.Texts())
	assert.Equal(t, 0.0, empty.AvgConfidence())
}
