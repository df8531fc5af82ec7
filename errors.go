package pyext

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound indicates the build tool could not be located on PATH
	ErrToolNotFound = errors.New("build tool not found")

	// ErrStageFailed indicates a build tool stage exited non-zero
	ErrStageFailed = errors.New("build stage failed")

	// ErrVersionFieldMissing indicates a version macro is absent from the header
	ErrVersionFieldMissing = errors.New("version field missing")

	// ErrUnknownMode indicates an unsupported packaging mode
	ErrUnknownMode = errors.New("unknown packaging mode")
)

// StageError reports a build tool stage that did not exit cleanly.
//
// Code carries the tool's exit status so callers can propagate it as the
// process exit status.
type StageError struct {
	Stage string // "configure" or "install"
	Tool  string // Build tool name, e.g. "CMake"
	Code  int    // Exit status of the stage
	Err   error  // Underlying error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s stage failed with exit code %d: %v", e.Tool, e.Stage, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s stage failed with exit code %d", e.Tool, e.Stage, e.Code)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStageFailed}
	}
	return []error{ErrStageFailed, e.Err}
}

// VersionFieldError names the version macro that could not be found.
type VersionFieldError struct {
	Prefix string
	Field  string
}

func (e *VersionFieldError) Error() string {
	return fmt.Sprintf("%s: %s_%s", ErrVersionFieldMissing, e.Prefix, e.Field)
}

func (e *VersionFieldError) Unwrap() error {
	return ErrVersionFieldMissing
}
