// Package models resolves ONNX model and dictionary locations for the OCR
// engine adapter. All files live under one models directory, overridable by
// flag or environment, defaulting to the user data dir.
package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// DetectionModel is the text-detection model filename.
const DetectionModel = "det.onnx"

// EnvModelsDir overrides the models directory when set.
const EnvModelsDir = "TEXTSIFT_MODELS_DIR"

// Dir returns the models directory. Priority: explicit argument,
// TEXTSIFT_MODELS_DIR, then ~/.local/share/textsift/models.
func Dir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "models")
	}
	return filepath.Join(home, ".local", "share", "textsift", "models")
}

// DetectionPath returns the detection model path under the resolved dir.
func DetectionPath(modelsDir string) string {
	return filepath.Join(Dir(modelsDir), DetectionModel)
}

// RecognitionPath returns the recognition model path for a language code,
// e.g. rec_en.onnx for "en".
func RecognitionPath(modelsDir, lang string) string {
	return filepath.Join(Dir(modelsDir), fmt.Sprintf("rec_%s.onnx", lang))
}

// DictionaryPath returns the character dictionary path for a language code.
func DictionaryPath(modelsDir, lang string) string {
	return filepath.Join(Dir(modelsDir), fmt.Sprintf("keys_%s.txt", lang))
}

// Exists checks that a model file is present.
func Exists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("model file not found: %s", path)
	}
	return nil
}

// Availability reports which model files are present for a language set.
type Availability struct {
	Detection bool
	Languages map[string]bool // true when both recognition model and dictionary exist
}

// Check probes the filesystem for the models the given languages need.
// It never fails; selftest renders the result for the operator.
func Check(modelsDir string, languages []string) Availability {
	av := Availability{
		Detection: Exists(DetectionPath(modelsDir)) == nil,
		Languages: make(map[string]bool, len(languages)),
	}
	for _, lang := range languages {
		av.Languages[lang] = Exists(RecognitionPath(modelsDir, lang)) == nil &&
			Exists(DictionaryPath(modelsDir, lang)) == nil
	}
	return av
}
