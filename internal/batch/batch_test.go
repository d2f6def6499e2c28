package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/runner"
	"github.com/textsift/textsift/internal/testutil"
)

func writeDocs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		if strings.HasSuffix(name, ".png") {
			testutil.SavePNG(t, filepath.Dir(full), filepath.Base(full), testutil.TextPageImage(40, 30, 1))
		} else {
			require.NoError(t, os.WriteFile(full, []byte("x"), 0o600))
		}
	}
}

func TestDiscoverSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, "b.png", "a.jpg", "notes.txt", "c.pdf")

	paths, err := Discover([]string{dir}, false, "")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), paths[1])
	assert.Equal(t, filepath.Join(dir, "c.pdf"), paths[2])
}

func TestDiscoverRecursive(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, "top.png", filepath.Join("sub", "nested.png"))

	flat, err := Discover([]string{dir}, false, "")
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	deep, err := Discover([]string{dir}, true, "")
	require.NoError(t, err)
	assert.Len(t, deep, 2)
}

func TestDiscoverPattern(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, "scan_1.png", "scan_2.png", "photo.png")

	paths, err := Discover([]string{dir}, false, "scan_*.png")
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestDiscoverMissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "nope")}, false, "")
	assert.Error(t, err)
}

func newRunner(t *testing.T, mock *engine.Mock) *runner.Runner {
	t.Helper()
	r, err := runner.NewBuilder().
		WithEngine(mock).
		WithSessionBase(t.TempDir()).
		Build()
	require.NoError(t, err)
	return r
}

func TestProcessBatch(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, "a.png", "b.png", "c.png")

	mock := engine.NewMock("en").
		Script("en", testutil.Row(1), testutil.Row(2), testutil.Row(3))

	res, err := Process(context.Background(), newRunner(t, mock), []string{dir}, Config{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded())
	assert.Empty(t, res.Failed())

	var sb strings.Builder
	res.WriteSummary(&sb)
	assert.Contains(t, sb.String(), "3/3 files succeeded")
}

func TestProcessBatchCollectsPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, "a.png", "broken.pdf")

	res, err := Process(context.Background(), newRunner(t, engine.NewMock("en")), []string{dir}, Config{})
	require.NoError(t, err, "a bad file must not abort the batch")
	assert.Equal(t, 1, res.Succeeded())
	require.Len(t, res.Failed(), 1)
	assert.Contains(t, res.Failed()[0].Path, "broken.pdf")
}

func TestProcessBatchEmpty(t *testing.T) {
	_, err := Process(context.Background(), newRunner(t, engine.NewMock("en")), []string{t.TempDir()}, Config{})
	assert.Error(t, err)
}
