package pyext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// PackageFiles lists the glob patterns that select one package's files.
//
// Patterns are slash-separated and relative to the package's active root.
// "*" stays within one path segment, "**" crosses segments, and "**/" may
// also match no directory at all, so "**/cmake/x.cmake" matches both
// "cmake/x.cmake" and "share/cmake/x.cmake".
//
// Symlinks to files are followed and packaged as regular files. Dangling
// links and links to directories are skipped.
type PackageFiles struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// Manifest is the ordered set of package file declarations.
//
// The same manifest is used for binary and source packaging. What ends up
// in an archive differs only by which root the patterns are evaluated
// against.
type Manifest []PackageFiles

// DefaultManifest returns the nanobind package file patterns.
func DefaultManifest() Manifest {
	return Manifest{
		{
			Name: "nanobind",
			Patterns: []string{
				"include/nanobind/**/*.h",
				"include/nanobind/intrusive/*.inl",
				"**/cmake/nanobind-config.cmake",
				"**/cmake/nanobind.cmake",
				"**/cmake/darwin-ld-cpython.sym",
				"**/cmake/darwin-ld-pypy.sym",
				"src/**/*.h",
				"src/**/*.cpp",
				"src/**/*.py",
				"**/ext/robin_map/include/tsl/*.h",
				"**/ext/robin_map/*.natvis",
				"**/ext/robin_map/CMakeLists.txt",
				"CMakeLists.txt",
				"nanobind-config.cmake.in",
				"tests/*.h",
				"tests/*.cpp",
			},
		},
	}
}

// Packages returns the package names in declaration order.
func (m Manifest) Packages() []string {
	names := make([]string, 0, len(m))
	for _, p := range m {
		names = append(names, p.Name)
	}
	return names
}

// Validate checks that package names are present and unique and that every
// pattern compiles.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return errors.New("manifest declares no packages")
	}

	seen := make(map[string]struct{}, len(m))
	for _, p := range m {
		if p.Name == "" {
			return errors.New("manifest package without a name")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("manifest package %q declared twice", p.Name)
		}
		seen[p.Name] = struct{}{}

		if _, err := p.Matcher(); err != nil {
			return err
		}
	}
	return nil
}

// Matcher tests relative paths against a package's compiled patterns.
type Matcher struct {
	globs []glob.Glob
}

// Matcher compiles the package patterns.
func (p PackageFiles) Matcher() (*Matcher, error) {
	m := &Matcher{}
	for _, pattern := range p.Patterns {
		for _, variant := range expandDoubleStar(pattern) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("package %s: invalid pattern %q: %w", p.Name, pattern, err)
			}
			m.globs = append(m.globs, g)
		}
	}
	return m, nil
}

// Match reports whether a slash-separated relative path is selected.
func (m *Matcher) Match(rel string) bool {
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Collect walks root and returns the regular files selected by the package
// patterns, as slash-separated paths relative to root, in lexical order.
func (p PackageFiles) Collect(root string) ([]string, error) {
	matcher, err := p.Matcher()
	if err != nil {
		return nil, err
	}

	var files []string
	err = fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			// Symlinked files are followed, symlinked directories are not
			info, err := os.Stat(filepath.Join(root, filepath.FromSlash(path)))
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}
		if matcher.Match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting %s files from %s: %w", p.Name, root, err)
	}

	sort.Strings(files)
	return files, nil
}

// expandDoubleStar returns pattern plus every variant with one or more
// "**/" segments dropped, so recursive wildcards can match zero directories.
func expandDoubleStar(pattern string) []string {
	idx := strings.Index(pattern, "**/")
	if idx < 0 {
		return []string{pattern}
	}

	head := pattern[:idx]
	var variants []string
	for _, tail := range expandDoubleStar(pattern[idx+3:]) {
		variants = append(variants, head+"**/"+tail, head+tail)
	}
	return variants
}
