package pyext

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeTool records every stage invocation and optionally fails.
type fakeTool struct {
	calls         []string
	configureArgs []string
	installArgs   []string
	configureErr  error
	installErr    error
	// populate, when set, writes files into the install prefix
	populate func(prefix string) error
}

func (f *fakeTool) Name() string { return "fake" }

func (f *fakeTool) Configure(ctx context.Context, args []string) error {
	f.calls = append(f.calls, stageConfigure)
	f.configureArgs = append([]string(nil), args...)
	return f.configureErr
}

func (f *fakeTool) Install(ctx context.Context, args []string) error {
	f.calls = append(f.calls, stageInstall)
	f.installArgs = append([]string(nil), args...)
	if f.installErr != nil {
		return f.installErr
	}
	if f.populate != nil {
		return f.populate(args[3])
	}
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testBuildConfig(sourceDir string) *BuildConfig {
	return &BuildConfig{
		SourceDir:      sourceDir,
		ConfigureFlags: []string{"-DNB_PYTHON_INSTALLATION=ON"},
		Toggles:        []Toggle{{Name: "NB_USE_SUBMODULE_DEPS", Value: "ON"}},
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected %s to be empty, found %v", dir, names)
	}
}

func TestProduceInstallTreeRunsConfigureThenInstall(t *testing.T) {
	sourceDir := t.TempDir()
	tmp := t.TempDir()

	tool := &fakeTool{
		populate: func(prefix string) error {
			return os.WriteFile(filepath.Join(prefix, "marker"), []byte("x"), 0o600)
		},
	}
	o := &Orchestrator{Tool: tool, TempDir: tmp, Prefix: "nanobind", Logger: quietLogger()}

	tree, err := o.ProduceInstallTree(context.Background(), testBuildConfig(sourceDir))
	if err != nil {
		t.Fatalf("ProduceInstallTree returned error: %v", err)
	}
	defer tree.Close()

	if !reflect.DeepEqual(tool.calls, []string{stageConfigure, stageInstall}) {
		t.Fatalf("expected configure then install, got %v", tool.calls)
	}

	if len(tool.configureArgs) != 6 {
		t.Fatalf("unexpected configure args: %v", tool.configureArgs)
	}
	buildDir := tool.configureArgs[3]
	wantConfigure := []string{
		"-S", sourceDir,
		"-B", buildDir,
		"-DNB_PYTHON_INSTALLATION=ON",
		"-DNB_USE_SUBMODULE_DEPS=ON",
	}
	if !reflect.DeepEqual(tool.configureArgs, wantConfigure) {
		t.Errorf("configure args mismatch\nexpected: %v\ngot:      %v", wantConfigure, tool.configureArgs)
	}

	wantInstall := []string{"--install", buildDir, "--prefix", tree.Path()}
	if !reflect.DeepEqual(tool.installArgs, wantInstall) {
		t.Errorf("install args mismatch\nexpected: %v\ngot:      %v", wantInstall, tool.installArgs)
	}

	if filepath.Base(buildDir) == filepath.Base(tree.Path()) {
		t.Error("build workspace and install prefix must differ")
	}

	if _, err := os.Stat(buildDir); !os.IsNotExist(err) {
		t.Errorf("expected build workspace %s to be removed, stat err: %v", buildDir, err)
	}

	if _, err := os.Stat(filepath.Join(tree.Path(), "marker")); err != nil {
		t.Errorf("expected install tree to survive the call: %v", err)
	}

	if err := tree.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := os.Stat(tree.Path()); !os.IsNotExist(err) {
		t.Errorf("expected install tree removed after Close, stat err: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}

func TestProduceInstallTreePassesToggleVerbatim(t *testing.T) {
	tool := &fakeTool{}
	o := &Orchestrator{Tool: tool, TempDir: t.TempDir(), Logger: quietLogger()}

	config := testBuildConfig(t.TempDir())
	config.Toggles = []Toggle{{Name: "NB_USE_SUBMODULE_DEPS", Value: "maybe"}}
	config.BuildArgs = []string{"-G", "Ninja"}

	tree, err := o.ProduceInstallTree(context.Background(), config)
	if err != nil {
		t.Fatalf("ProduceInstallTree returned error: %v", err)
	}
	defer tree.Close()

	got := tool.configureArgs[len(tool.configureArgs)-3:]
	want := []string{"-DNB_USE_SUBMODULE_DEPS=maybe", "-G", "Ninja"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected trailing args %v, got %v", want, got)
	}
}

func TestProduceInstallTreeToolNotFound(t *testing.T) {
	origLookPath := execLookPath
	defer func() { execLookPath = origLookPath }()

	var lookups []string
	execLookPath = func(name string) (string, error) {
		lookups = append(lookups, name)
		return "", errors.New("not found")
	}

	tmp := t.TempDir()
	o := &Orchestrator{TempDir: tmp, Logger: quietLogger()}

	tree, err := o.ProduceInstallTree(context.Background(), testBuildConfig(t.TempDir()))
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if tree != nil {
		t.Fatal("expected no install tree")
	}

	if !reflect.DeepEqual(lookups, []string{"cmake", "cmake3"}) {
		t.Errorf("expected lookups of cmake and cmake3, got %v", lookups)
	}

	// Nothing was created, so nothing was ever run
	assertEmptyDir(t, tmp)
}

func TestProduceInstallTreeInstallFailure(t *testing.T) {
	tmp := t.TempDir()
	tool := &fakeTool{installErr: &StageError{Stage: stageInstall, Tool: "fake", Code: 7}}
	o := &Orchestrator{Tool: tool, TempDir: tmp, Logger: quietLogger()}

	tree, err := o.ProduceInstallTree(context.Background(), testBuildConfig(t.TempDir()))
	if tree != nil {
		t.Fatal("expected no install tree after install failure")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %v", err)
	}
	if stageErr.Code != 7 || stageErr.Stage != stageInstall {
		t.Errorf("unexpected stage error: %+v", stageErr)
	}
	if !errors.Is(err, ErrStageFailed) {
		t.Error("expected error to match ErrStageFailed")
	}

	if !reflect.DeepEqual(tool.calls, []string{stageConfigure, stageInstall}) {
		t.Errorf("expected exactly one configure and one install, got %v", tool.calls)
	}

	assertEmptyDir(t, tmp)
}

func TestProduceInstallTreeConfigureFailureSkipsInstall(t *testing.T) {
	tmp := t.TempDir()
	tool := &fakeTool{configureErr: &StageError{Stage: stageConfigure, Tool: "fake", Code: 2}}
	o := &Orchestrator{Tool: tool, TempDir: tmp, Logger: quietLogger()}

	if _, err := o.ProduceInstallTree(context.Background(), testBuildConfig(t.TempDir())); err == nil {
		t.Fatal("expected configure failure")
	}

	if !reflect.DeepEqual(tool.calls, []string{stageConfigure}) {
		t.Errorf("expected install to be skipped, got %v", tool.calls)
	}

	assertEmptyDir(t, tmp)
}

func TestProduceInstallTreeCanceledContext(t *testing.T) {
	tmp := t.TempDir()
	tool := &fakeTool{}
	o := &Orchestrator{Tool: tool, TempDir: tmp, Logger: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.ProduceInstallTree(ctx, testBuildConfig(t.TempDir()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(tool.calls) != 0 {
		t.Errorf("expected no stages to run, got %v", tool.calls)
	}

	assertEmptyDir(t, tmp)
}

func TestProduceInstallTreeRequiresSourceDir(t *testing.T) {
	o := &Orchestrator{Tool: &fakeTool{}, Logger: quietLogger()}

	if _, err := o.ProduceInstallTree(context.Background(), nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := o.ProduceInstallTree(context.Background(), &BuildConfig{}); err == nil {
		t.Error("expected error for empty source directory")
	}
}
