package cli_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/textsift/textsift/test/integration/cli/support"
)

// TestMain builds the textsift binary once for every scenario.
func TestMain(m *testing.M) {
	if err := support.BuildBinary(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build textsift binary: %v\n", err)
		os.Exit(1)
	}
	code := m.Run()
	support.RemoveBinary()
	os.Exit(code)
}

// InitializeScenario wires a fresh test context into each scenario.
func InitializeScenario(sc *godog.ScenarioContext) {
	testCtx, err := support.NewTestContext()
	if err != nil {
		panic(fmt.Sprintf("failed to create test context: %v", err))
	}
	testCtx.RegisterSteps(sc)
}

// TestFeatures runs every feature file under features/.
func TestFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("read features directory: %v", err)
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: InitializeScenario,
				Options: &godog.Options{
					Format:   format,
					Paths:    []string{filepath.Join("features", e.Name())},
					TestingT: t,
					Strict:   true,
				},
			}
			if suite.Run() != 0 {
				t.Fatalf("feature %s failed", e.Name())
			}
		})
	}
}
