package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/session"
)

// Artifact names inside a session directory.
const (
	SummaryName   = "summary.png"
	HistogramName = "confidence_histogram.png"
)

// AnnotatedName returns the artifact name for a page's annotated image.
func AnnotatedName(page int) string {
	return fmt.Sprintf("page_%03d_annotated.png", page)
}

// SaveAnnotated writes the annotated page image into the session.
func SaveAnnotated(sess *session.Session, page int, img image.Image, dets []aggregate.Detection) error {
	return savePNG(sess, AnnotatedName(page), AnnotatePage(img, dets))
}

// SaveSummary renders a text card with the run's statistics and its ten
// highest-confidence detections.
func SaveSummary(sess *session.Session, run *aggregate.Run) error {
	stats := run.Statistics()

	type scored struct {
		text string
		conf float64
		page int
	}
	var all []scored
	for _, p := range run.Pages() {
		for _, d := range p.Detections {
			all = append(all, scored{text: d.Text, conf: d.Confidence, page: p.Page})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].conf > all[j].conf })
	if len(all) > 10 {
		all = all[:10]
	}

	lines := []string{
		"OCR Run Summary",
		fmt.Sprintf("Source: %s", run.Source()),
		fmt.Sprintf("Pages: %d   Regions: %d", stats.PageCount, stats.TotalDetections),
		fmt.Sprintf("Confidence mean %.3f  min %.3f  max %.3f",
			stats.MeanConfidence, stats.MinConfidence, stats.MaxConfidence),
		"",
		"Top detections:",
	}
	for i, s := range all {
		text := s.text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		lines = append(lines, fmt.Sprintf("%2d. [p%d %.3f] %s", i+1, s.page, s.conf, text))
	}

	return savePNG(sess, SummaryName, textCard(lines, 560))
}

// SaveHistogram renders the confidence distribution over ten equal buckets.
func SaveHistogram(sess *session.Session, run *aggregate.Run) error {
	var counts [10]int
	maxCount := 0
	for _, p := range run.Pages() {
		for _, d := range p.Detections {
			bucket := int(d.Confidence * 10)
			if bucket > 9 {
				bucket = 9
			}
			counts[bucket]++
			if counts[bucket] > maxCount {
				maxCount = counts[bucket]
			}
		}
	}

	const (
		chartW, chartH = 440, 220
		marginL        = 40
		marginB        = 30
		barGap         = 4
	)
	img := imaging.New(chartW+marginL, chartH+marginB+20, color.White)

	drawLabel(img, marginL, 14, "Confidence distribution", inkColor)

	plotH := chartH - 20
	barW := (chartW - barGap*10) / 10
	for i, c := range counts {
		h := 0
		if maxCount > 0 {
			h = c * plotH / maxCount
		}
		x := marginL + i*(barW+barGap)
		y := 20 + plotH - h
		if h > 0 {
			fillRect(img, image.Rect(x, y, x+barW, 20+plotH), barColor)
		}
		drawLabel(img, x, 20+plotH+14, fmt.Sprintf(".%d", i), inkColor)
		drawLabel(img, x, y-2, itoa(c), inkColor)
	}
	return savePNG(sess, HistogramName, img)
}

// textCard renders lines of text onto a white card sized to fit.
func textCard(lines []string, width int) *image.NRGBA {
	const lineHeight = 16
	height := lineHeight*(len(lines)+1) + 10
	img := imaging.New(width, height, color.White)
	for i, line := range lines {
		drawLabel(img, 10, (i+1)*lineHeight, line, inkColor)
	}
	return img
}

func fillRect(img *image.NRGBA, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, col)
		}
	}
}

func savePNG(sess *session.Session, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return sess.WriteFile(name, buf.Bytes())
}
