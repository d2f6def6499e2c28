package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/session"
)

// EncodeCSV exports the run's detections as CSV with a header row, one row
// per detection in page order.
func EncodeCSV(run *aggregate.Run) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"page", "index", "text", "confidence", "x1", "y1", "x2", "y2"})
	for _, p := range run.Pages() {
		for i, d := range p.Detections {
			row := []string{
				strconv.Itoa(p.Page),
				strconv.Itoa(i + 1),
				d.Text,
				fmt.Sprintf("%.3f", d.Confidence),
				fmt.Sprintf("%.1f", d.Box.MinX),
				fmt.Sprintf("%.1f", d.Box.MinY),
				fmt.Sprintf("%.1f", d.Box.MaxX),
				fmt.Sprintf("%.1f", d.Box.MaxY),
			}
			_ = w.Write(row)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return buf.String(), nil
}

// SaveCSV writes the CSV table into the session directory.
func SaveCSV(sess *session.Session, run *aggregate.Run) error {
	data, err := EncodeCSV(run)
	if err != nil {
		return err
	}
	return sess.WriteFile(CSVName, []byte(data))
}
