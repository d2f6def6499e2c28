package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/session"
)

// PageRecord is one page's entry in the structured dump.
type PageRecord struct {
	Page          int         `json:"page"`
	Texts         []string    `json:"texts"`
	Scores        []float64   `json:"scores"`
	Boxes         [][]float64 `json:"boxes"`
	ImagePath     string      `json:"image_path"`
	TextCount     int         `json:"text_count"`
	AvgConfidence float64     `json:"avg_confidence"`
	Timestamp     string      `json:"timestamp"`
}

// Dump is the structured export: run statistics as the header block,
// the ordered page records, and the export timestamp.
type Dump struct {
	Metadata   aggregate.Statistics `json:"metadata"`
	Results    []PageRecord         `json:"results"`
	ExportTime string               `json:"export_time"`
}

// BuildDump assembles the structured dump for a run. Boxes serialize as
// [x1, y1, x2, y2] arrays; empty pages carry empty lists, not null.
func BuildDump(run *aggregate.Run) Dump {
	pages := run.Pages()
	records := make([]PageRecord, 0, len(pages))
	for _, p := range pages {
		rec := PageRecord{
			Page:          p.Page,
			Texts:         make([]string, 0, len(p.Detections)),
			Scores:        make([]float64, 0, len(p.Detections)),
			Boxes:         make([][]float64, 0, len(p.Detections)),
			ImagePath:     p.ImagePath,
			TextCount:     len(p.Detections),
			AvgConfidence: p.AvgConfidence(),
			Timestamp:     p.Timestamp.Format(time.RFC3339),
		}
		for _, d := range p.Detections {
			rec.Texts = append(rec.Texts, d.Text)
			rec.Scores = append(rec.Scores, d.Confidence)
			rec.Boxes = append(rec.Boxes, []float64{d.Box.MinX, d.Box.MinY, d.Box.MaxX, d.Box.MaxY})
		}
		records = append(records, rec)
	}

	return Dump{
		Metadata:   run.Statistics(),
		Results:    records,
		ExportTime: time.Now().Format(time.RFC3339),
	}
}

// EncodeJSON marshals the dump with indentation.
func EncodeJSON(run *aggregate.Run) ([]byte, error) {
	data, err := json.MarshalIndent(BuildDump(run), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return data, nil
}

// SaveJSON writes the structured dump into the session directory.
func SaveJSON(sess *session.Session, run *aggregate.Run) error {
	data, err := EncodeJSON(run)
	if err != nil {
		return err
	}
	return sess.WriteFile(JSONDumpName, data)
}
