package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/onnx/mock"
)

// dict maps class 1 -> "H", 2 -> "e", 3 -> "l", 4 -> "o".
var testDict = []string{"H", "e", "l", "o"}

func TestDecodeCTCCollapsesRepeatsAndBlanks(t *testing.T) {
	// H e l (blank) l o  ->  "Hello"
	lg := mock.GreedyPathLogits([]int{1, 2, 3, 0, 3, 4}, 5, 10, 0.1)
	text, conf, err := decodeCTC(lg.Data, lg.Shape, testDict)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Greater(t, conf, 0.9)
	assert.LessOrEqual(t, conf, 1.0)
}

func TestDecodeCTCRepeatedClassEmitsOnce(t *testing.T) {
	lg := mock.GreedyPathLogits([]int{3, 3, 3}, 5, 10, 0.1)
	text, _, err := decodeCTC(lg.Data, lg.Shape, testDict)
	require.NoError(t, err)
	assert.Equal(t, "l", text)
}

func TestDecodeCTCAllBlank(t *testing.T) {
	lg := mock.GreedyPathLogits([]int{0, 0, 0, 0}, 5, 10, 0.1)
	text, conf, err := decodeCTC(lg.Data, lg.Shape, testDict)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 0.0, conf)
}

func TestDecodeCTCOutOfDictClassSkipped(t *testing.T) {
	// Class 9 has no dictionary entry; only the "e" survives.
	lg := mock.GreedyPathLogits([]int{9, 0, 2}, 10, 10, 0.1)
	text, _, err := decodeCTC(lg.Data, lg.Shape, testDict)
	require.NoError(t, err)
	assert.Equal(t, "e", text)
}

func TestDecodeCTCBadShape(t *testing.T) {
	_, _, err := decodeCTC(make([]float32, 10), []int64{2, 5}, testDict)
	assert.Error(t, err)

	_, _, err = decodeCTC(make([]float32, 3), []int64{1, 2, 5}, testDict)
	assert.Error(t, err)
}

func TestLoadDictionary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys_en.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o600))

	dict, err := loadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, dict)
}

func TestLoadDictionaryMissingOrEmpty(t *testing.T) {
	_, err := loadDictionary(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "keys.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = loadDictionary(empty)
	assert.Error(t, err)
}
