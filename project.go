package pyext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project describes how a native library is turned into a Python
// distribution: where its version lives, how CMake is configured and which
// files ship.
type Project struct {
	Name           string       `yaml:"name"`
	VersionHeader  string       `yaml:"version_header"`
	VersionPrefix  string       `yaml:"version_prefix"`
	ConfigureFlags []string     `yaml:"configure_flags"`
	Toggles        []ToggleSpec `yaml:"toggles"`
	Metadata       Metadata     `yaml:"metadata"`
	Packages       Manifest     `yaml:"packages"`
}

// DefaultProject returns the nanobind project description.
func DefaultProject() *Project {
	return &Project{
		Name:           "nanobind",
		VersionHeader:  "include/nanobind/nanobind.h",
		VersionPrefix:  "NB_VERSION",
		ConfigureFlags: []string{"-DNB_PYTHON_INSTALLATION=ON"},
		Toggles: []ToggleSpec{
			// Whether the package bundles submodule'd dependencies (robin_map)
			{Name: "NB_USE_SUBMODULE_DEPS", Env: "NB_USE_SUBMODULE_DEPS", Default: "ON"},
		},
		Metadata: Metadata{
			Name:                       "nanobind",
			Author:                     "Wenzel Jakob",
			AuthorEmail:                "wenzel.jakob@epfl.ch",
			Summary:                    "nanobind: tiny and efficient C++/Python bindings",
			URL:                        "https://github.com/wjakob/nanobind",
			License:                    "BSD",
			LongDescription:            nanobindLongDescription,
			LongDescriptionContentType: "text/markdown",
		},
		Packages: DefaultManifest(),
	}
}

// LoadProject reads a project description from a YAML file.
//
// Unknown keys are rejected. metadata.name defaults to the project name.
func LoadProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}
	defer f.Close()

	var p Project
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", path, err)
	}

	if p.Metadata.Name == "" {
		p.Metadata.Name = p.Name
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks the fields every packaging run depends on.
func (p *Project) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("name is required")
	case p.VersionHeader == "":
		return errors.New("version_header is required")
	case p.VersionPrefix == "":
		return errors.New("version_prefix is required")
	}
	for _, t := range p.Toggles {
		if t.Name == "" {
			return errors.New("toggle without a name")
		}
	}
	return p.Packages.Validate()
}

// BuildConfig resolves the project's toggles through lookup and returns the
// configuration for building from repoRoot.
func (p *Project) BuildConfig(repoRoot string, lookup LookupFunc) *BuildConfig {
	return &BuildConfig{
		SourceDir:      repoRoot,
		ConfigureFlags: append([]string(nil), p.ConfigureFlags...),
		Toggles:        ResolveToggles(p.Toggles, lookup),
	}
}

// HeaderPath returns the version header's location under repoRoot.
func (p *Project) HeaderPath(repoRoot string) string {
	return filepath.Join(repoRoot, filepath.FromSlash(p.VersionHeader))
}
