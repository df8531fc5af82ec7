package pyext

import "context"

// BuildTool abstracts the external build tool as a two-stage capability.
//
// The orchestrator never spawns processes itself; it hands fully formed
// argument lists to a BuildTool. CMakeTool is the production implementation,
// tests substitute a recording double.
//
// # Stage Contract
//
//  1. Configure(args) - generate a build tree, e.g.
//     cmake -S <src> -B <build> -DNB_PYTHON_INSTALLATION=ON -DNB_USE_SUBMODULE_DEPS=ON
//  2. Install(args) - place the ready-to-ship tree under a prefix, e.g.
//     cmake --install <build> --prefix <install>
//
// Both stages block until the tool exits. A non-zero exit must be reported
// as an error, preferably a *StageError carrying the exit status.
//
// # Example Implementation
//
//	type recordingTool struct{ calls [][]string }
//
//	func (t *recordingTool) Name() string { return "fake" }
//
//	func (t *recordingTool) Configure(ctx context.Context, args []string) error {
//	    t.calls = append(t.calls, args)
//	    return nil
//	}
//
//	func (t *recordingTool) Install(ctx context.Context, args []string) error {
//	    t.calls = append(t.calls, args)
//	    return nil
//	}
type BuildTool interface {
	// Name returns the human-readable name of the tool.
	//
	// This name is used in error messages and logs.
	Name() string

	// Configure runs the configure stage with the given arguments.
	Configure(ctx context.Context, args []string) error

	// Install runs the install stage with the given arguments.
	Install(ctx context.Context, args []string) error
}
