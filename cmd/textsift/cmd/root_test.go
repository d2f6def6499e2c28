package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/testutil"
)

// execute runs the root command with args and returns the combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	globalConfig = nil
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "textsift", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "process")
	assert.Contains(t, out, "sessions")
	assert.Contains(t, out, "serve")
}

func TestRootCommandVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "textsift")
}

func TestProcessRequiresArgs(t *testing.T) {
	_, err := execute(t, "process")
	assert.Error(t, err)
}

func TestSelftest(t *testing.T) {
	out, err := execute(t, "selftest")
	require.NoError(t, err)
	assert.Contains(t, out, "pipeline check: ok")
	assert.Contains(t, out, "models dir:")
}

func TestProcessWithMockEngine(t *testing.T) {
	t.Setenv("TEXTSIFT_ENGINE", "mock")
	outputDir := filepath.Join(t.TempDir(), "sessions")
	page := testutil.SavePNG(t, t.TempDir(), "page.png", testutil.TextPageImage(40, 30, 1))

	out, err := execute(t, "process", page, "--output-dir", outputDir, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "1 pages")
	assert.Contains(t, out, "pages without text: [1]")

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSessionsListEmpty(t *testing.T) {
	out, err := execute(t, "sessions", "list", "--output-dir", filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Contains(t, out, "no sessions")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level:")
	assert.Contains(t, out, "dedup:")
}

func TestMain(m *testing.M) {
	code := m.Run()
	viper.Reset()
	os.Exit(code)
}
