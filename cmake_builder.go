package pyext

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/magefile/mage/sh"
)

// Stage names
const (
	stageConfigure = "configure"
	stageInstall   = "install"
)

// waitDelay bounds how long a killed stage may keep its output pipes open.
const waitDelay = 2 * time.Second

// CMakeRequirement describes the CMake executable the orchestrator needs.
var CMakeRequirement = ToolRequirement{
	Name:         "cmake",
	Alternatives: []string{"cmake3"},
	Purpose:      "CMake build system",
}

// CMakeTool drives a CMake executable.
//
// Both the tool's stdout and stderr are written to the diagnostic stream;
// nothing the build prints reaches stdout of the packaging process.
type CMakeTool struct {
	Path   string            // Resolved cmake executable
	Output io.Writer         // Diagnostic stream, os.Stderr when nil
	Env    map[string]string // Extra environment variables
	Logger *log.Logger
}

// NewCMakeTool resolves cmake on PATH.
//
// Returns an error wrapping ErrToolNotFound if no candidate is found. No
// process is started by the lookup.
func NewCMakeTool() (*CMakeTool, error) {
	path, err := LookupTool(CMakeRequirement)
	if err != nil {
		return nil, err
	}
	return &CMakeTool{Path: path}, nil
}

// Name returns the tool name
func (t *CMakeTool) Name() string {
	return "CMake"
}

// Configure runs cmake with the configure arguments
func (t *CMakeTool) Configure(ctx context.Context, args []string) error {
	return t.run(ctx, stageConfigure, args)
}

// Install runs cmake with the install arguments
func (t *CMakeTool) Install(ctx context.Context, args []string) error {
	return t.run(ctx, stageInstall, args)
}

func (t *CMakeTool) run(ctx context.Context, stage string, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := t.Output
	if out == nil {
		out = os.Stderr
	}

	t.logger().Debug("running", "stage", stage, "cmd", t.Path+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	// Set environment variables
	cmd.Env = os.Environ()
	for key, value := range t.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &StageError{Stage: stage, Tool: t.Name(), Code: 1, Err: ctxErr}
	}

	if !sh.CmdRan(err) {
		// The process never started (bad path, permissions)
		return &StageError{Stage: stage, Tool: t.Name(), Code: 1, Err: err}
	}

	return &StageError{Stage: stage, Tool: t.Name(), Code: sh.ExitStatus(err), Err: err}
}

func (t *CMakeTool) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}
