package pyext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// InstallTreeProducer produces a ready-to-package install tree.
//
// Orchestrator is the production implementation.
type InstallTreeProducer interface {
	ProduceInstallTree(ctx context.Context, config *BuildConfig) (*InstallTree, error)
}

// InstallTree is a handle to the ephemeral install prefix.
//
// The tree outlives the orchestration call that created it: the packager
// reads from it afterwards. Whoever holds the handle last calls Close, which
// removes the directory. Close is safe to call more than once.
type InstallTree struct {
	path    string
	removed bool
}

// NewInstallTree wraps an existing directory as an install tree handle.
func NewInstallTree(path string) *InstallTree {
	return &InstallTree{path: path}
}

// Path returns the install prefix.
func (t *InstallTree) Path() string {
	return t.path
}

// Close removes the install tree.
func (t *InstallTree) Close() error {
	if t == nil || t.removed {
		return nil
	}
	t.removed = true
	return os.RemoveAll(t.path)
}

// Orchestrator runs the build tool's configure and install stages against
// a fresh workspace and returns the resulting install tree.
//
// # Directories
//
// Two temporary directories are created per call:
//   - the build workspace, removed before ProduceInstallTree returns,
//     whether the stages succeeded or not
//   - the install prefix, handed to the caller as an *InstallTree
//
// Nothing guards the install prefix against concurrent packaging runs;
// one run per process is assumed.
type Orchestrator struct {
	// Tool is the build tool to drive. When nil, cmake is looked up on PATH
	// at call time.
	Tool BuildTool

	// Output receives the build tool's output. os.Stderr when nil.
	Output io.Writer

	// TempDir is the parent for temporary directories. os.TempDir() when empty.
	TempDir string

	// Prefix names the temporary directories, e.g. "nanobind" yields
	// nanobind_build_* and nanobind_cmake_*.
	Prefix string

	Logger *log.Logger
}

// ProduceInstallTree configures and installs the native library.
//
// The tool is resolved before anything touches the filesystem; if it cannot
// be found the returned error wraps ErrToolNotFound and no process is
// started. A stage failure is returned as-is (typically a *StageError), the
// install prefix is removed and no tree is handed out.
func (o *Orchestrator) ProduceInstallTree(ctx context.Context, config *BuildConfig) (*InstallTree, error) {
	if config == nil {
		return nil, errors.New("build configuration is required")
	}
	if config.SourceDir == "" {
		return nil, errors.New("source directory is required")
	}

	logger := o.logger()

	tool, err := o.resolveTool(config)
	if err != nil {
		logger.Error("build tool unavailable", "err", err)
		return nil, err
	}

	sourceDir, err := filepath.Abs(config.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolving source directory: %w", err)
	}

	buildDir, err := os.MkdirTemp(o.TempDir, o.prefix()+"_build_")
	if err != nil {
		return nil, fmt.Errorf("creating build workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(buildDir); rmErr != nil {
			logger.Warn("failed to remove build workspace", "dir", buildDir, "err", rmErr)
		}
	}()

	installDir, err := os.MkdirTemp(o.TempDir, o.prefix()+"_cmake_")
	if err != nil {
		return nil, fmt.Errorf("creating install directory: %w", err)
	}
	tree := NewInstallTree(installDir)

	configureArgs := ConfigureArgs(sourceDir, buildDir, config)
	installArgs := InstallArgs(buildDir, installDir)

	err = runSteps(ctx, []buildStep{
		{stage: stageConfigure, run: func(ctx context.Context) error {
			return tool.Configure(ctx, configureArgs)
		}},
		{stage: stageInstall, run: func(ctx context.Context) error {
			return tool.Install(ctx, installArgs)
		}},
	}, func(stage string) {
		args := configureArgs
		if stage == stageInstall {
			args = installArgs
		}
		if config.Verbose {
			logger.Info(stage, "tool", tool.Name(), "args", strings.Join(args, " "))
		} else {
			logger.Info(stage, "tool", tool.Name())
		}
	})
	if err != nil {
		if rmErr := tree.Close(); rmErr != nil {
			logger.Warn("failed to remove install directory", "dir", installDir, "err", rmErr)
		}
		logger.Error("build failed", "err", err)
		return nil, err
	}

	logger.Info("install tree ready", "dir", installDir)
	return tree, nil
}

// ConfigureArgs builds the configure stage argument list.
//
//	-S <source> -B <build> <ConfigureFlags...> -D<toggle>=<value>... <BuildArgs...>
func ConfigureArgs(sourceDir, buildDir string, config *BuildConfig) []string {
	args := []string{"-S", sourceDir, "-B", buildDir}
	args = append(args, config.ConfigureFlags...)
	for _, toggle := range config.Toggles {
		args = append(args, toggle.Define())
	}
	return append(args, config.BuildArgs...)
}

// InstallArgs builds the install stage argument list.
func InstallArgs(buildDir, installDir string) []string {
	return []string{"--install", buildDir, "--prefix", installDir}
}

func (o *Orchestrator) resolveTool(config *BuildConfig) (BuildTool, error) {
	if o.Tool != nil {
		return o.Tool, nil
	}

	tool, err := NewCMakeTool()
	if err != nil {
		return nil, err
	}
	tool.Output = o.Output
	tool.Env = config.Env
	tool.Logger = o.Logger
	return tool, nil
}

func (o *Orchestrator) prefix() string {
	if o.Prefix != "" {
		return o.Prefix
	}
	return "pyext"
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}
