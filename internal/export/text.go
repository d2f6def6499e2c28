// Package export renders a run's accumulated results into the delivered
// artifacts: a human-readable text report, a structured JSON dump and a
// CSV table, all written into the run's session directory.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/session"
)

// Default artifact names inside a session directory.
const (
	TextReportName = "extracted_text.txt"
	JSONDumpName   = "extracted_text.json"
	CSVName        = "extracted_text.csv"
)

// WriteTextReport renders the page-by-page report: a statistics header,
// one block per page with numbered texts and confidences, and a final
// section with every text combined.
func WriteTextReport(w io.Writer, run *aggregate.Run) error {
	stats := run.Statistics()

	var b strings.Builder
	b.WriteString("OCR Text Extraction Results\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Source: %s\n", run.Source())
	fmt.Fprintf(&b, "Exported: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Total Pages: %d\n", stats.PageCount)
	fmt.Fprintf(&b, "Total Text Regions: %d\n", stats.TotalDetections)
	fmt.Fprintf(&b, "Average Confidence: %.3f\n", stats.MeanConfidence)
	fmt.Fprintf(&b, "Min Confidence: %.3f\n", stats.MinConfidence)
	fmt.Fprintf(&b, "Max Confidence: %.3f\n", stats.MaxConfidence)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, page := range run.Pages() {
		fmt.Fprintf(&b, "PAGE %d\n", page.Page)
		b.WriteString(strings.Repeat("-", 20) + "\n")

		if len(page.Detections) == 0 {
			b.WriteString("No text detected on this page.\n\n")
		} else {
			for i, det := range page.Detections {
				fmt.Fprintf(&b, "%3d. %s\n", i+1, det.Text)
				fmt.Fprintf(&b, "     Confidence: %.3f\n\n", det.Confidence)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("ALL TEXT COMBINED\n")
	b.WriteString(strings.Repeat("=", 20) + "\n")
	for i, text := range run.AllText() {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveTextReport writes the text report into the session directory.
func SaveTextReport(sess *session.Session, run *aggregate.Run) error {
	var b strings.Builder
	if err := WriteTextReport(&b, run); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return sess.WriteFile(TextReportName, []byte(b.String()))
}

// WriteMatches renders search hits one per line in page order.
func WriteMatches(w io.Writer, matches []aggregate.Match) error {
	for _, m := range matches {
		_, err := fmt.Fprintf(w, "page %d #%d: %q (confidence %.3f, box %.0f,%.0f,%.0f,%.0f)\n",
			m.Page, m.Index+1, m.Text, m.Confidence,
			m.Box.MinX, m.Box.MinY, m.Box.MaxX, m.Box.MaxY)
		if err != nil {
			return err
		}
	}
	return nil
}
