// Package support holds the godog step definitions and the process-level
// harness for the CLI integration suite. Every scenario runs the compiled
// binary with the scripted mock engine so no ONNX models are needed.
package support

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/textsift/textsift/internal/testutil"
)

var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

// BuildBinary compiles cmd/textsift once into a temp location.
func BuildBinary() error {
	buildOnce.Do(func() {
		root, err := testutil.GetProjectRoot()
		if err != nil {
			buildErr = err
			return
		}
		dir, err := os.MkdirTemp("", "textsift-bin-*")
		if err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(dir, "textsift")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/textsift")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build: %w\n%s", err, out)
		}
	})
	return buildErr
}

// RemoveBinary cleans up the compiled binary.
func RemoveBinary() {
	if binaryPath != "" {
		_ = os.RemoveAll(filepath.Dir(binaryPath))
	}
}

// TestContext carries one scenario's state.
type TestContext struct {
	TempDir    string
	OutputDir  string
	ConfigPath string

	LastOutput   string
	LastExitCode int

	documents map[string]string // logical name -> path
}

// NewTestContext prepares an isolated scenario workspace.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "textsift-cli-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &TestContext{
		TempDir:   tempDir,
		OutputDir: filepath.Join(tempDir, "sessions"),
		documents: make(map[string]string),
	}, nil
}

// Cleanup removes the scenario workspace.
func (testCtx *TestContext) Cleanup() error {
	return os.RemoveAll(testCtx.TempDir)
}
