// Package archive packs package source trees into compressed, content addressed archives
// and extracts them into staging areas.
package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/gany/internal/adapters/schema"
	"go.trai.ch/gany/internal/adapters/wire"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ArchiveCodec = (*Codec)(nil)

// epoch is the modification time of every archived entry, so equal trees give equal digests.
var epoch = time.Unix(0, 0).UTC()

// Codec implements ports.ArchiveCodec as a tar stream wrapped by a Compressor.
type Codec struct {
	compressor ports.Compressor
	digester   ports.Digester
}

// New creates a Codec.
func New(compressor ports.Compressor, digester ports.Digester) *Codec {
	return &Codec{
		compressor: compressor,
		digester:   digester,
	}
}

// ReadManifest loads and validates <sourceDir>/manifest.yaml.
func ReadManifest(sourceDir string) (*domain.Package, error) {
	p := filepath.Join(sourceDir, domain.ManifestFileName)
	data, err := os.ReadFile(p) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", p)
	}

	var pkg domain.Package
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, err.Error()), "path", p)
	}
	if pkg.Arch == "" {
		pkg.Arch = domain.ArchAny
	}
	if err := schema.Validate(pkg, domain.ErrInvalidManifest); err != nil {
		return nil, zerr.With(err, "path", p)
	}
	return &pkg, nil
}

// CreatePackage archives the src directory of a package source tree.
// Files present in the tree but missing from the manifest are appended to it.
func (c *Codec) CreatePackage(ctx context.Context, sourceDir string) (*ports.BuiltPackage, error) {
	manifest, err := ReadManifest(sourceDir)
	if err != nil {
		return nil, err
	}

	srcDir := filepath.Join(sourceDir, domain.SourceDirName)
	var buf bytes.Buffer
	tree, err := writeTar(ctx, &buf, srcDir)
	if err != nil {
		return nil, err
	}

	files, err := reconcileFiles(manifest.Files, tree)
	if err != nil {
		return nil, zerr.With(err, "package", manifest.Name)
	}
	manifest.Files = files

	compressed, err := c.compressor.Compress(buf.Bytes())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to compress archive")
	}
	manifest.Digest = c.digester.Digest(compressed)

	return &ports.BuiltPackage{Manifest: *manifest, Archive: compressed}, nil
}

// writeTar writes every entry under root in lexical order and returns the archived file paths.
func writeTar(ctx context.Context, w io.Writer, root string) ([]string, error) {
	tw := tar.NewWriter(w)
	var files []string

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, tw.Close()
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr := &tar.Header{
			Name:    name,
			Mode:    int64(info.Mode().Perm()),
			ModTime: epoch,
			Format:  tar.FormatPAX,
		}
		switch {
		case d.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = target
			files = append(files, name)
		case info.Mode().IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Size = info.Size()
			files = append(files, name)
		default:
			return zerr.With(zerr.New("unsupported file type in package source"), "path", p)
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			return nil
		}
		f, err := os.Open(p) //nolint:gosec // walking the package source tree
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck // read only
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to archive package source"), "path", root)
	}
	if err := tw.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to finish archive")
	}
	return files, nil
}

// reconcileFiles checks the manifest file list against the archived tree.
func reconcileFiles(declared []domain.FileEntry, tree []string) ([]domain.FileEntry, error) {
	inTree := make(map[string]bool, len(tree))
	for _, p := range tree {
		inTree[p] = true
	}

	listed := make(map[string]bool, len(declared))
	out := make([]domain.FileEntry, 0, len(declared)+len(tree))
	for _, f := range declared {
		p, err := domain.CleanPath(f.Path)
		if err != nil {
			return nil, err
		}
		if listed[p] {
			continue
		}
		if !f.Ghost && !inTree[p] {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "listed file is missing from the source tree"), "path", p)
		}
		listed[p] = true
		out = append(out, domain.FileEntry{Path: p, Ghost: f.Ghost})
	}
	for _, p := range tree {
		if !listed[p] {
			out = append(out, domain.FileEntry{Path: p})
		}
	}
	return out, nil
}

// ExtractPackage verifies the digest of archive before decompressing it into stagingDir.
func (c *Codec) ExtractPackage(ctx context.Context, archive []byte, expected domain.Digest, stagingDir string) (*domain.FileSet, error) {
	if err := c.digester.Verify(archive, expected); err != nil {
		return nil, err
	}

	raw, err := c.compressor.Decompress(archive)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(stagingDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create staging directory"), "path", stagingDir)
	}

	set := &domain.FileSet{Dir: stagingDir}
	links := make(map[string]bool)
	tr := tar.NewReader(bytes.NewReader(raw))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "malformed tar stream"), "cause", err.Error())
		}

		name, err := entryName(hdr.Name)
		if err != nil {
			return nil, err
		}
		if throughLink(name, links) {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "entry is nested below a symbolic link"), "path", name)
		}

		target := filepath.Join(stagingDir, filepath.FromSlash(name))
		mode := fs.FileMode(hdr.Mode).Perm() //nolint:gosec // tar modes fit in 32 bits

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to create staged directory"), "path", target)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, mode); err != nil {
				return nil, err
			}
			set.Files = append(set.Files, domain.StagedFile{Path: name, Mode: mode, Size: hdr.Size})
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to create staged directory"), "path", target)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, err.Error()), "path", name)
			}
			links[name] = true
			set.Files = append(set.Files, domain.StagedFile{Path: name, Mode: fs.ModeSymlink | 0o777, Link: hdr.Linkname})
		default:
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "unsupported entry type"), "path", name)
		}
	}

	return set, nil
}

// entryName rejects absolute and parent-relative entries.
func entryName(raw string) (string, error) {
	trimmed := strings.TrimSuffix(raw, "/")
	if trimmed == "" || path.IsAbs(trimmed) || slices.Contains(strings.Split(trimmed, "/"), "..") {
		return "", zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "entry escapes the staging area"), "path", raw)
	}
	return path.Clean(trimmed), nil
}

func throughLink(name string, links map[string]bool) bool {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if links[dir] {
			return true
		}
	}
	return false
}

func writeEntry(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create staged directory"), "path", target)
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode) //nolint:gosec // target is inside the staging area
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrCorruptArchive, err.Error()), "path", target)
	}
	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // archive size is bounded by the verified input
		_ = f.Close()
		return zerr.With(zerr.Wrap(domain.ErrCorruptArchive, err.Error()), "path", target)
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close staged file"), "path", target)
	}
	// OpenFile applies the umask; staged files keep the archived mode.
	return os.Chmod(target, mode)
}

// EncodeManifest encodes the binary manifest shipped next to an archive.
func (c *Codec) EncodeManifest(pkg *domain.Package) ([]byte, error) {
	data, err := wire.Marshal(pkg)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode manifest")
	}
	return data, nil
}

// DecodeManifest decodes and validates a binary manifest.
func (c *Codec) DecodeManifest(data []byte) (*domain.Package, error) {
	var pkg domain.Package
	if err := wire.Unmarshal(data, &pkg); err != nil {
		return nil, zerr.Wrap(domain.ErrInvalidManifest, err.Error())
	}
	if err := schema.Validate(pkg, domain.ErrInvalidManifest); err != nil {
		return nil, err
	}
	return &pkg, nil
}
