package pyext

import (
	"fmt"
	"os/exec"
)

// execLookPath is replaced in tests to simulate a missing or present tool.
var execLookPath = exec.LookPath

// ToolRequirement describes a build tool dependency.
//
// # Examples
//
// Required tool:
//
//	ToolRequirement{
//	    Name: "cmake",
//	    Purpose: "CMake build system",
//	}
//
// Tool with alternatives:
//
//	ToolRequirement{
//	    Name: "cmake",
//	    Alternatives: []string{"cmake3"},
//	    Purpose: "CMake build system",
//	}
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g., "cmake").
	Name string

	// Alternatives are alternative tool names that can satisfy this requirement.
	// They are tried in order after Name.
	Alternatives []string

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// LookupTool resolves a tool requirement against PATH.
//
// The primary name is tried first, then each alternative in order. The
// first hit's absolute path is returned.
//
// # Error Format
//
//	build tool not found: cmake (CMake build system)
//
// The returned error wraps ErrToolNotFound.
func LookupTool(req ToolRequirement) (string, error) {
	candidates := append([]string{req.Name}, req.Alternatives...)
	for _, name := range candidates {
		if path, err := execLookPath(name); err == nil {
			return path, nil
		}
	}

	if req.Purpose != "" {
		return "", fmt.Errorf("%w: %s (%s)", ErrToolNotFound, req.Name, req.Purpose)
	}
	return "", fmt.Errorf("%w: %s", ErrToolNotFound, req.Name)
}
