package pyext

import (
	"fmt"
	"os"
)

// LookupFunc resolves a named setting, reporting whether it was set.
// os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// Toggle is a named build tool option forwarded as -D<Name>=<Value>.
//
// Value is passed through verbatim. It is expected to be a CMake boolean
// literal such as "ON" or "OFF" but is never validated or normalized here;
// CMake decides what it accepts.
type Toggle struct {
	Name  string
	Value string
}

// Define renders the toggle as a CMake cache definition.
func (t Toggle) Define() string {
	return fmt.Sprintf("-D%s=%s", t.Name, t.Value)
}

// ToggleSpec declares a toggle, the environment variable it is read from
// and the default used when that variable is unset.
type ToggleSpec struct {
	Name    string `yaml:"name"`
	Env     string `yaml:"env"`
	Default string `yaml:"default"`
}

// Resolve produces the toggle value from lookup, falling back to Default.
// A nil lookup reads the process environment.
func (s ToggleSpec) Resolve(lookup LookupFunc) Toggle {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	key := s.Env
	if key == "" {
		key = s.Name
	}

	if value, ok := lookup(key); ok {
		return Toggle{Name: s.Name, Value: value}
	}
	return Toggle{Name: s.Name, Value: s.Default}
}

// ResolveToggles resolves every spec in order.
func ResolveToggles(specs []ToggleSpec, lookup LookupFunc) []Toggle {
	toggles := make([]Toggle, 0, len(specs))
	for _, spec := range specs {
		toggles = append(toggles, spec.Resolve(lookup))
	}
	return toggles
}

// BuildConfig contains configuration for producing an install tree.
//
// This structure is passed explicitly into the orchestrator on every call,
// so nothing is read from the process environment behind the caller's back:
//
// Source:
//   - SourceDir: Repository root holding the top-level CMakeLists.txt
//
// Configure stage:
//   - ConfigureFlags: Fixed project flags, e.g. -DNB_PYTHON_INSTALLATION=ON
//   - Toggles: Resolved build toggles, forwarded as -D<name>=<value>
//   - BuildArgs: Additional arguments appended after the toggles
//
// Process environment:
//   - Env: Extra environment variables for the build tool
//   - Verbose: Log the full command lines
type BuildConfig struct {
	SourceDir string // Root of the native library sources

	ConfigureFlags []string          // Project flags for the configure stage
	Toggles        []Toggle          // Build toggles forwarded to the configure stage
	BuildArgs      []string          // Additional configure arguments
	Env            map[string]string // Environment variables for the build tool

	Verbose bool // Log full command lines
}
