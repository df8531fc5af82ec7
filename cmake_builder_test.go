package pyext

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testCMakePath = "/usr/bin/cmake"

func TestLookupToolUsesPrimary(t *testing.T) {
	origLookPath := execLookPath
	defer func() { execLookPath = origLookPath }()

	execLookPath = func(name string) (string, error) {
		if name != "cmake" {
			return "", errors.New("unexpected binary lookup")
		}
		return testCMakePath, nil
	}

	path, err := LookupTool(CMakeRequirement)
	if err != nil {
		t.Fatalf("LookupTool returned error: %v", err)
	}
	if path != testCMakePath {
		t.Errorf("expected %s, got %s", testCMakePath, path)
	}
}

func TestLookupToolFallsBackToAlternative(t *testing.T) {
	origLookPath := execLookPath
	defer func() { execLookPath = origLookPath }()

	execLookPath = func(name string) (string, error) {
		if name == "cmake3" {
			return "/usr/bin/cmake3", nil
		}
		return "", errors.New("not found")
	}

	tool, err := NewCMakeTool()
	if err != nil {
		t.Fatalf("NewCMakeTool returned error: %v", err)
	}
	if tool.Path != "/usr/bin/cmake3" {
		t.Errorf("expected cmake3 fallback, got %s", tool.Path)
	}
}

func TestLookupToolNotFound(t *testing.T) {
	origLookPath := execLookPath
	defer func() { execLookPath = origLookPath }()

	execLookPath = func(string) (string, error) {
		return "", errors.New("not found")
	}

	_, err := LookupTool(CMakeRequirement)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}

	expected := "build tool not found: cmake (CMake build system)"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

// writeScript creates an executable shell script standing in for cmake.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), "cmake")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestCMakeToolWritesOutputToDiagnostics(t *testing.T) {
	script := writeScript(t, `echo "args: $*"; echo "warning" >&2`)

	var diag bytes.Buffer
	tool := &CMakeTool{Path: script, Output: &diag, Logger: quietLogger()}

	if err := tool.Configure(context.Background(), []string{"-S", "src", "-B", "build"}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	out := diag.String()
	if !strings.Contains(out, "args: -S src -B build") {
		t.Errorf("expected arguments echoed to diagnostics, got %q", out)
	}
	if !strings.Contains(out, "warning") {
		t.Errorf("expected stderr in diagnostics, got %q", out)
	}
}

func TestCMakeToolPropagatesExitStatus(t *testing.T) {
	script := writeScript(t, "exit 3")

	tool := &CMakeTool{Path: script, Output: &bytes.Buffer{}, Logger: quietLogger()}

	err := tool.Install(context.Background(), []string{"--install", "build", "--prefix", "out"})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if stageErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", stageErr.Code)
	}
	if stageErr.Stage != stageInstall {
		t.Errorf("expected install stage, got %s", stageErr.Stage)
	}
	if !errors.Is(err, ErrStageFailed) {
		t.Error("expected error to match ErrStageFailed")
	}
}

func TestCMakeToolPassesEnvironment(t *testing.T) {
	script := writeScript(t, `echo "deps=$NB_TEST_VALUE"`)

	var diag bytes.Buffer
	tool := &CMakeTool{
		Path:   script,
		Output: &diag,
		Env:    map[string]string{"NB_TEST_VALUE": "OFF"},
		Logger: quietLogger(),
	}

	if err := tool.Configure(context.Background(), nil); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	if !strings.Contains(diag.String(), "deps=OFF") {
		t.Errorf("expected environment to reach the tool, got %q", diag.String())
	}
}

func TestCMakeToolHonorsCanceledContext(t *testing.T) {
	script := writeScript(t, "exit 0")
	tool := &CMakeTool{Path: script, Output: &bytes.Buffer{}, Logger: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tool.Configure(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCMakeToolPassesArgumentsLiterally(t *testing.T) {
	script := writeScript(t, `for a in "$@"; do echo "arg=$a"; done`)

	var diag bytes.Buffer
	tool := &CMakeTool{Path: script, Output: &diag, Logger: quietLogger()}

	args := []string{"-S", "/repo/a$HOME/b", "-DX=$HOME"}
	if err := tool.Configure(context.Background(), args); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	out := diag.String()
	for _, want := range []string{"arg=/repo/a$HOME/b\n", "arg=-DX=$HOME\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in tool output, got %q", want, out)
		}
	}

	if !reflect.DeepEqual(args, []string{"-S", "/repo/a$HOME/b", "-DX=$HOME"}) {
		t.Errorf("caller's arguments were modified: %v", args)
	}
}

func TestCMakeToolAbortsRunningStageOnCancel(t *testing.T) {
	script := writeScript(t, "exec sleep 5")
	tool := &CMakeTool{Path: script, Output: &bytes.Buffer{}, Logger: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := tool.Install(ctx, nil)
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, ErrStageFailed) {
		t.Error("expected an interrupted stage to count as failed")
	}
	if elapsed > 3*time.Second {
		t.Errorf("stage kept running after cancellation: %s", elapsed)
	}
}
