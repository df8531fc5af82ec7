package pyext

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
)

// Compression formats for ArchivePackager
const (
	CompressionGzip = "gz"
	CompressionXz   = "xz"
)

// ParseCompression validates a compression name. Empty means gzip.
func ParseCompression(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "gz", "gzip", "tar.gz":
		return CompressionGzip, nil
	case "xz", "tar.xz":
		return CompressionXz, nil
	default:
		return "", fmt.Errorf("unsupported compression %q (want gz or xz)", s)
	}
}

// ArchivePackager writes a distribution into a compressed tarball.
//
// # Layout
//
// Source distribution, <name>-<version>.tar.<ext>:
//
//	<name>-<version>/PKG-INFO
//	<name>-<version>/<file relative to the package root>
//
// Binary distribution, <name>-<version>-py3-none-any.tar.<ext>:
//
//	<package>/<file relative to the package root>
//	<name>-<version>.dist-info/METADATA
//
// In binary names, dashes in <name> become underscores.
//
// Files are selected by the distribution's manifest against each package's
// active root and written in lexical order.
type ArchivePackager struct {
	OutDir      string // Destination directory, created if missing
	Compression string // CompressionGzip (default) or CompressionXz
	Logger      *log.Logger
}

// Package writes the archive and returns its path.
func (p *ArchivePackager) Package(ctx context.Context, dist *Distribution, mode Mode) (string, error) {
	compression, err := ParseCompression(p.Compression)
	if err != nil {
		return "", err
	}

	entries, err := p.entries(dist, mode)
	if err != nil {
		return "", err
	}

	outDir := p.OutDir
	if outDir == "" {
		outDir = "dist"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	archivePath := filepath.Join(outDir, archiveName(dist, mode, compression))
	if err := writeArchive(ctx, archivePath, compression, entries); err != nil {
		_ = os.Remove(archivePath)
		return "", err
	}

	p.logger().Info("wrote archive", "mode", mode, "path", archivePath, "files", len(entries))
	return archivePath, nil
}

// archiveEntry is one file in the archive. Exactly one of src and data is set.
type archiveEntry struct {
	name string
	src  string
	data []byte
}

func (p *ArchivePackager) entries(dist *Distribution, mode Mode) ([]archiveEntry, error) {
	meta := []byte(dist.Metadata.CoreMetadata())
	full := dist.FullName()

	var entries []archiveEntry
	seen := make(map[string]struct{})

	add := func(e archiveEntry) {
		if _, dup := seen[e.name]; dup {
			return
		}
		seen[e.name] = struct{}{}
		entries = append(entries, e)
	}

	if mode == SourceDist {
		add(archiveEntry{name: path.Join(full, "PKG-INFO"), data: meta})
	}

	for _, pkg := range dist.Manifest {
		root, err := dist.PackageDir(pkg.Name)
		if err != nil {
			return nil, err
		}

		files, err := pkg.Collect(root)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			p.logger().Warn("no files matched", "package", pkg.Name, "root", root)
		}

		for _, rel := range files {
			name := path.Join(pkg.Name, rel)
			if mode == SourceDist {
				name = path.Join(full, rel)
			}
			add(archiveEntry{name: name, src: filepath.Join(root, filepath.FromSlash(rel))})
		}
	}

	if mode == BinaryBuild {
		add(archiveEntry{name: path.Join(binaryName(dist)+".dist-info", "METADATA"), data: meta})
	}

	return entries, nil
}

func archiveName(dist *Distribution, mode Mode, compression string) string {
	if mode == BinaryBuild {
		return fmt.Sprintf("%s-py3-none-any.tar.%s", binaryName(dist), compression)
	}
	return fmt.Sprintf("%s.tar.%s", dist.FullName(), compression)
}

// binaryName is <name>-<version> with dashes in the name replaced by
// underscores, shared by the binary archive and its .dist-info directory.
func binaryName(dist *Distribution) string {
	return strings.ReplaceAll(dist.Metadata.Name, "-", "_") + "-" + dist.Metadata.Version
}

func writeArchive(ctx context.Context, archivePath, compression string, entries []archiveEntry) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	var zw io.WriteCloser
	switch compression {
	case CompressionXz:
		xw, err := xz.NewWriter(f)
		if err != nil {
			return fmt.Errorf("creating xz writer: %w", err)
		}
		zw = xw
	default:
		zw = gzip.NewWriter(f)
	}

	tw := tar.NewWriter(zw)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeEntry(tw, e); err != nil {
			return fmt.Errorf("adding %s: %w", e.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing %s stream: %w", compression, err)
	}
	return f.Close()
}

func writeEntry(tw *tar.Writer, e archiveEntry) error {
	if e.data != nil {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0o644,
			Size:     int64(len(e.data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err := tw.Write(e.data)
		return err
	}

	info, err := os.Stat(e.src)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = e.name
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	in, err := os.Open(e.src)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(tw, in)
	return err
}

func (p *ArchivePackager) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}
