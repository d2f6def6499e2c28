package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirExplicitWins(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/explicit", Dir("/explicit"))
}

func TestDirEnvFallback(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/env/models", Dir(""))
}

func TestDirDefaultUnderHome(t *testing.T) {
	t.Setenv(EnvModelsDir, "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "textsift", "models"), Dir(""))
}

func TestPathShapes(t *testing.T) {
	dir := "/m"
	assert.Equal(t, filepath.Join(dir, "det.onnx"), DetectionPath(dir))
	assert.Equal(t, filepath.Join(dir, "rec_en.onnx"), RecognitionPath(dir, "en"))
	assert.Equal(t, filepath.Join(dir, "rec_ar.onnx"), RecognitionPath(dir, "ar"))
	assert.Equal(t, filepath.Join(dir, "keys_en.txt"), DictionaryPath(dir, "en"))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "det.onnx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	assert.NoError(t, Exists(path))
	assert.Error(t, Exists(filepath.Join(dir, "missing.onnx")))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"det.onnx", "rec_en.onnx", "keys_en.txt", "rec_ar.onnx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	av := Check(dir, []string{"en", "ar"})
	assert.True(t, av.Detection)
	assert.True(t, av.Languages["en"])
	// Arabic dictionary is missing.
	assert.False(t, av.Languages["ar"])
}
