// Command generate-test-data writes synthetic page images and detection
// fixtures used by the integration suite and manual runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/geometry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var (
		outDir   = flag.String("out", "testdata", "output directory")
		pages    = flag.Int("pages", 3, "synthetic page images to generate")
		images   = flag.Bool("images", true, "generate page images")
		fixtures = flag.Bool("fixtures", true, "generate detection fixtures")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate synthetic test data.\n\nOPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*outDir, *pages, *images, *fixtures); err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("test data written", "dir", *outDir)
}

func run(outDir string, pages int, images, fixtures bool) error {
	if images {
		dir := filepath.Join(outDir, "images")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		for i := 1; i <= pages; i++ {
			path := filepath.Join(dir, fmt.Sprintf("page_%03d.png", i))
			if err := imaging.Save(pageImage(620, 877, 3+i), path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
		}
	}

	if fixtures {
		dir := filepath.Join(outDir, "fixtures")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		if err := writeFixture(filepath.Join(dir, "detections.json"), pages); err != nil {
			return err
		}
	}
	return nil
}

// pageImage renders a white page with black text-like bars, one per line.
func pageImage(w, h, lines int) image.Image {
	img := imaging.New(w, h, color.White)
	lineHeight := h / (lines + 1)
	for i := 1; i <= lines; i++ {
		y := i * lineHeight
		for x := w / 10; x < w-w/10; x++ {
			for dy := 0; dy < lineHeight/3; dy++ {
				img.Set(x, y+dy, color.Black)
			}
		}
	}
	return img
}

// writeFixture dumps per-page detection arrays, each page carrying a pair
// of overlapping entries so merge paths have material to work with.
func writeFixture(path string, pages int) error {
	fixture := make(map[string][]aggregate.Detection, pages)
	for p := 1; p <= pages; p++ {
		fixture[fmt.Sprintf("page_%d", p)] = []aggregate.Detection{
			{Text: fmt.Sprintf("Heading %d", p), Confidence: 0.95, Box: geometry.NewBox(10, 10, 110, 40)},
			{Text: fmt.Sprintf("Headin %d", p), Confidence: 0.60, Box: geometry.NewBox(12, 11, 110, 40)},
			{Text: "Body line", Confidence: 0.88, Box: geometry.NewBox(10, 60, 110, 90)},
		}
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
