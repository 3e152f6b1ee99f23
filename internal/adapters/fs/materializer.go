package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Materializer = (*Materializer)(nil)

// Materializer applies plan actions below an install root.
// Staging areas live under the state directory, which is expected to share a filesystem
// with the root so that committing a file is a single rename.
type Materializer struct {
	root     string
	stateDir string
	codec    ports.ArchiveCodec
	hasher   *Hasher
	now      func() time.Time
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithClock overrides the clock used for install timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Materializer) {
		m.now = now
	}
}

// NewMaterializer creates a Materializer.
func NewMaterializer(root, stateDir string, codec ports.ArchiveCodec, hasher *Hasher, opts ...Option) *Materializer {
	m := &Materializer{
		root:     root,
		stateDir: stateDir,
		codec:    codec,
		hasher:   hasher,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stage verifies and extracts archive into <state>/staging/<txID>/<name>.
// The extracted tree must hold exactly the regular paths of the manifest.
func (m *Materializer) Stage(ctx context.Context, txID string, pkg *domain.Package, archive []byte) (*domain.StagedPackage, error) {
	dir := filepath.Join(domain.StagingPath(m.stateDir, txID), pkg.Name)
	set, err := m.codec.ExtractPackage(ctx, archive, pkg.Digest, dir)
	if err != nil {
		return nil, zerr.With(err, "package", pkg.ID())
	}

	want := make(map[string]bool)
	for _, f := range pkg.Files {
		if f.Ghost {
			continue
		}
		p, err := domain.CleanPath(f.Path)
		if err != nil {
			return nil, zerr.With(err, "package", pkg.ID())
		}
		want[p] = true
	}
	for _, f := range set.Files {
		if !want[f.Path] {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "archive holds a file missing from the manifest"),
				"path", f.Path), "package", pkg.ID())
		}
		delete(want, f.Path)
	}
	if len(want) > 0 {
		missing := slices.Sorted(maps.Keys(want))
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "manifest lists a file missing from the archive"),
			"path", missing[0]), "package", pkg.ID())
	}

	return &domain.StagedPackage{Package: pkg.Clone(), Content: *set}, nil
}

// CheckOwnership reports the first path claimed by a staged package that belongs to someone else.
func (m *Materializer) CheckOwnership(db *domain.InstalledDB, staged []*domain.StagedPackage, replaced []string) error {
	claims := make(map[string]string)
	for _, sp := range staged {
		name := sp.Package.Name
		ignore := append(slices.Clone(replaced), name)
		for _, f := range sp.Package.Files {
			if f.Ghost {
				continue
			}
			p, err := domain.CleanPath(f.Path)
			if err != nil {
				return err
			}
			if other, ok := claims[p]; ok && other != name {
				return &domain.FileConflictError{Path: p, Package: name, Owner: other}
			}
			claims[p] = name

			if owner, ok := db.ExclusiveOwner(p, ignore...); ok {
				return &domain.FileConflictError{Path: p, Package: name, Owner: owner}
			}
			if len(db.Owners(p)) > 0 {
				continue
			}
			if _, err := os.Lstat(m.target(p)); err == nil {
				return &domain.FileConflictError{Path: p, Package: name}
			}
		}
	}
	return nil
}

// Install moves the staged files of a package into place and returns its database entry.
// On failure, files placed at paths nobody owned before are removed again, so the package
// can be retried without tripping the ownership check.
func (m *Materializer) Install(ctx context.Context, staged *domain.StagedPackage, db *domain.InstalledDB) (_ *domain.InstalledPackage, err error) {
	pkg := staged.Package
	entries := make(map[string]domain.StagedFile, len(staged.Content.Files))
	for _, f := range staged.Content.Files {
		entries[f.Path] = f
	}

	var fresh []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range fresh {
			_ = m.removePath(p)
		}
	}()

	owned := make([]domain.OwnedFile, 0, len(pkg.Files))
	keep := make(map[string]bool, len(pkg.Files))
	for _, f := range pkg.Files {
		p, err := domain.CleanPath(f.Path)
		if err != nil {
			return nil, err
		}
		keep[p] = true
		if f.Ghost {
			owned = append(owned, domain.OwnedFile{Path: p, Ghost: true})
			continue
		}

		entry, ok := entries[p]
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "file was not staged"), "path", p)
		}
		src := filepath.Join(staged.Content.Dir, filepath.FromSlash(p))
		dst := m.target(p)
		unowned := len(db.Owners(p)) == 0
		if err := m.place(src, dst, entry); err != nil {
			return nil, zerr.With(err, "package", pkg.ID())
		}
		if unowned {
			fresh = append(fresh, p)
		}
		sum, err := m.hasher.Fingerprint(dst)
		if err != nil {
			return nil, err
		}
		owned = append(owned, domain.OwnedFile{Path: p, Fingerprint: sum})
	}

	if prev, ok := db.Get(pkg.Name); ok {
		for _, f := range prev.Files {
			if keep[f.Path] || claimedByOthers(db, f.Path, pkg.Name) {
				continue
			}
			if err := m.removePath(f.Path); err != nil {
				return nil, zerr.With(err, "package", pkg.ID())
			}
		}
	}

	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelInfo, fmt.Sprintf("installed %d files of %s", len(owned), pkg.ID()))
	}

	return &domain.InstalledPackage{
		Package:     pkg.Clone(),
		Files:       owned,
		InstalledAt: m.now().UTC(),
		Repository:  pkg.Repository,
	}, nil
}

// place renames src to dst, copying when the staging area is on another device.
func (m *Materializer) place(src, dst string, entry domain.StagedFile) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.InstallDirPerm); err != nil {
		return writeErr(err, dst)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return writeErr(err, dst)
	}

	if entry.Mode&fs.ModeSymlink != 0 {
		tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-link")
		_ = os.Remove(tmp)
		if err := os.Symlink(entry.Link, tmp); err != nil {
			return writeErr(err, dst)
		}
		if err := os.Rename(tmp, dst); err != nil {
			_ = os.Remove(tmp)
			return writeErr(err, dst)
		}
		return nil
	}
	data, err := os.ReadFile(src) //nolint:gosec // src is inside the staging area
	if err != nil {
		return writeErr(err, dst)
	}
	return WriteFileAtomic(dst, data, entry.Mode.Perm())
}

// Remove deletes every file of pkg that no other installed package claims.
func (m *Materializer) Remove(ctx context.Context, pkg *domain.InstalledPackage, db *domain.InstalledDB) error {
	removed := 0
	for _, f := range pkg.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if claimedByOthers(db, f.Path, pkg.Name()) {
			continue
		}
		if err := m.removePath(f.Path); err != nil {
			return zerr.With(err, "package", pkg.Package.ID())
		}
		removed++
	}
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelInfo, fmt.Sprintf("removed %d files of %s", removed, pkg.Package.ID()))
	}
	return nil
}

func claimedByOthers(db *domain.InstalledDB, path, self string) bool {
	for _, o := range db.Owners(path) {
		if o.Package != self {
			return true
		}
	}
	return false
}

// removePath deletes a file and prunes the empty directories it leaves behind.
func (m *Materializer) removePath(p string) error {
	target := m.target(p)
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(domain.ErrWrite, err.Error()), "path", target)
	}
	m.prune(filepath.Dir(target))
	return nil
}

// prune is best effort and stops at the first directory that is not empty.
func (m *Materializer) prune(dir string) {
	root := filepath.Clean(m.root)
	for dir != root && len(dir) > len(root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Discard deletes the staging area of a transaction.
func (m *Materializer) Discard(txID string) error {
	dir := domain.StagingPath(m.stateDir, txID)
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove staging area"), "path", dir)
	}
	return nil
}

// WriteFile atomically replaces a path below the install root.
func (m *Materializer) WriteFile(path string, data []byte, perm fs.FileMode) error {
	p, err := domain.CleanPath(path)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrWrite, err.Error()), "path", path)
	}
	return WriteFileAtomic(m.target(p), data, perm)
}

func (m *Materializer) target(p string) string {
	return filepath.Join(m.root, filepath.FromSlash(p))
}
