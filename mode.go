package pyext

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Mode selects which tree a packaging command reads from.
type Mode int

const (
	// BinaryBuild packages the build tool's install tree.
	BinaryBuild Mode = iota + 1
	// SourceDist packages the repository as-is. The build tool is never run.
	SourceDist
)

// String returns the command name for the mode
func (m Mode) String() string {
	switch m {
	case BinaryBuild:
		return "bdist"
	case SourceDist:
		return "sdist"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a packaging command name to its mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bdist", "build", "build_py", "wheel", "binary":
		return BinaryBuild, nil
	case "sdist", "source":
		return SourceDist, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// RootSelection is the outcome of choosing a package source root.
//
// Tree is set only for BinaryBuild and must stay open until the packager
// has finished reading from Root.
type RootSelection struct {
	Mode Mode
	Root string
	Tree *InstallTree
}

// Close releases the install tree, if any.
func (s *RootSelection) Close() error {
	if s == nil {
		return nil
	}
	return s.Tree.Close()
}

// SelectRoot decides the active package root for mode.
//
// BinaryBuild runs producer and returns its install tree as the root.
// SourceDist returns repoRoot without touching producer, so a source
// distribution can be made on a machine with no build tool installed.
func SelectRoot(ctx context.Context, mode Mode, repoRoot string, producer InstallTreeProducer, config *BuildConfig) (*RootSelection, error) {
	switch mode {
	case BinaryBuild:
		return binaryRoot(ctx, producer, config)
	case SourceDist:
		return sourceRoot(repoRoot), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

func binaryRoot(ctx context.Context, producer InstallTreeProducer, config *BuildConfig) (*RootSelection, error) {
	if producer == nil {
		return nil, errors.New("binary build requires an install tree producer")
	}

	tree, err := producer.ProduceInstallTree(ctx, config)
	if err != nil {
		return nil, err
	}

	return &RootSelection{Mode: BinaryBuild, Root: tree.Path(), Tree: tree}, nil
}

func sourceRoot(repoRoot string) *RootSelection {
	return &RootSelection{Mode: SourceDist, Root: repoRoot}
}
