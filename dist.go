package pyext

import (
	"context"
	"errors"
	"fmt"
)

// Distribution is the packager's view of the project: its metadata, the
// manifest, and the active source root of every package.
type Distribution struct {
	Metadata Metadata
	Manifest Manifest

	// PackageDirs maps package name to the directory its manifest patterns
	// are evaluated against. Empty until a root has been selected.
	PackageDirs map[string]string
}

// LoadDistribution reads the version header under repoRoot and returns a
// distribution with no package roots assigned.
//
// A missing version field fails here, before any build or packaging step
// starts.
func LoadDistribution(repoRoot string, project *Project) (*Distribution, error) {
	if project == nil {
		project = DefaultProject()
	}
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}

	version, err := ReadVersion(project.HeaderPath(repoRoot), project.VersionPrefix)
	if err != nil {
		return nil, err
	}

	meta := project.Metadata
	if meta.Name == "" {
		meta.Name = project.Name
	}
	meta.Version = version.String()

	return &Distribution{
		Metadata:    meta,
		Manifest:    project.Packages,
		PackageDirs: make(map[string]string, len(project.Packages)),
	}, nil
}

// FullName returns <name>-<version>.
func (d *Distribution) FullName() string {
	return d.Metadata.Name + "-" + d.Metadata.Version
}

// SetRoot points every manifest package at root.
func (d *Distribution) SetRoot(root string) {
	if d.PackageDirs == nil {
		d.PackageDirs = make(map[string]string, len(d.Manifest))
	}
	for _, name := range d.Manifest.Packages() {
		d.PackageDirs[name] = root
	}
}

// PackageDir returns the active root of a package.
func (d *Distribution) PackageDir(name string) (string, error) {
	dir, ok := d.PackageDirs[name]
	if !ok || dir == "" {
		return "", fmt.Errorf("package %s has no source root", name)
	}
	return dir, nil
}

// Packager turns a distribution with assigned roots into an artifact.
type Packager interface {
	Package(ctx context.Context, dist *Distribution, mode Mode) (string, error)
}

// Request bundles the inputs of a packaging run.
type Request struct {
	Mode     Mode
	RepoRoot string
	Config   *BuildConfig
	Producer InstallTreeProducer
	Packager Packager
}

// Run selects the active root for req.Mode, rewrites the distribution's
// package roots and hands it to the packager. The root is always in place
// before the packager is called. An install tree produced for a binary
// build is removed once the packager returns.
func Run(ctx context.Context, dist *Distribution, req Request) (artifact string, err error) {
	if req.Packager == nil {
		return "", errors.New("packager is required")
	}

	sel, err := SelectRoot(ctx, req.Mode, req.RepoRoot, req.Producer, req.Config)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := sel.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("removing install tree: %w", closeErr))
		}
	}()

	dist.SetRoot(sel.Root)

	return req.Packager.Package(ctx, dist, req.Mode)
}
