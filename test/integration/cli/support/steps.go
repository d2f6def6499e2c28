package support

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
)

// RegisterSteps binds all step definitions and the scenario teardown.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a sample page image "([^"]*)"$`, testCtx.aSamplePageImage)
	sc.Step(`^(\d+) existing sessions$`, testCtx.existingSessions)
	sc.Step(`^I run textsift with "([^"]*)"$`, testCtx.iRunTextsift)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^there should be (\d+) sessions?$`, testCtx.thereShouldBeSessions)
	sc.Step(`^the newest session should contain "([^"]*)"$`, testCtx.newestSessionShouldContain)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.fileShouldExist)

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if cleanupErr := testCtx.Cleanup(); cleanupErr != nil {
			fmt.Printf("warning: cleanup failed: %v\n", cleanupErr)
		}
		return ctx, nil
	})
}

// aSamplePageImage writes a small white page with a black bar.
func (testCtx *TestContext) aSamplePageImage(name string) error {
	img := imaging.New(120, 80, color.White)
	bar := image.Rect(10, 30, 110, 50)
	for y := bar.Min.Y; y < bar.Max.Y; y++ {
		for x := bar.Min.X; x < bar.Max.X; x++ {
			img.Set(x, y, color.Black)
		}
	}
	path := filepath.Join(testCtx.TempDir, name)
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save sample page: %w", err)
	}
	testCtx.documents[name] = path
	return nil
}

// existingSessions seeds the output dir with empty session directories,
// spaced one second apart in mtime so retention ordering is deterministic.
func (testCtx *TestContext) existingSessions(count int) error {
	base := time.Now().Add(-time.Duration(count) * time.Minute)
	for i := 0; i < count; i++ {
		dir := filepath.Join(testCtx.OutputDir, fmt.Sprintf("seed_%03d", i))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		mtime := base.Add(time.Duration(i) * time.Second)
		if err := os.Chtimes(dir, mtime, mtime); err != nil {
			return err
		}
	}
	return nil
}

// iRunTextsift executes the binary with the given arguments. Occurrences
// of {doc:name}, {outdir} and {tempdir} are substituted first.
func (testCtx *TestContext) iRunTextsift(argLine string) error {
	argLine = strings.ReplaceAll(argLine, "{outdir}", testCtx.OutputDir)
	argLine = strings.ReplaceAll(argLine, "{tempdir}", testCtx.TempDir)
	for name, path := range testCtx.documents {
		argLine = strings.ReplaceAll(argLine, "{doc:"+name+"}", path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := strings.Fields(argLine)
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), "TEXTSIFT_ENGINE=mock")

	output, err := cmd.CombinedOutput()
	testCtx.LastOutput = string(output)

	testCtx.LastExitCode = 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			testCtx.LastExitCode = exitErr.ExitCode()
		} else {
			return fmt.Errorf("run textsift: %w", err)
		}
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d\noutput: %s",
			testCtx.LastExitCode, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded unexpectedly\noutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q\noutput: %s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) thereShouldBeSessions(count int) error {
	entries, err := os.ReadDir(testCtx.OutputDir)
	if err != nil {
		if os.IsNotExist(err) && count == 0 {
			return nil
		}
		return err
	}
	dirs := 0
	for _, e := range entries {
		if e.IsDir() {
			dirs++
		}
	}
	if dirs != count {
		return fmt.Errorf("expected %d sessions, found %d", count, dirs)
	}
	return nil
}

// newestSessionShouldContain checks for a file inside the most recently
// modified session directory.
func (testCtx *TestContext) newestSessionShouldContain(filename string) error {
	entries, err := os.ReadDir(testCtx.OutputDir)
	if err != nil {
		return err
	}
	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = e.Name()
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return errors.New("no session directories found")
	}
	path := filepath.Join(testCtx.OutputDir, newest, filename)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("session file %s: %w", path, err)
	}
	return nil
}

func (testCtx *TestContext) fileShouldExist(name string) error {
	path := filepath.Join(testCtx.TempDir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s: %w", path, err)
	}
	return nil
}
