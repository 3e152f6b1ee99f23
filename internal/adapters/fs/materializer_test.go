package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/fs"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/pkgtest"
)

type env struct {
	root  string
	state string
	m     *fs.Materializer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	e := &env{
		root:  filepath.Join(base, "root"),
		state: filepath.Join(base, "state"),
	}
	require.NoError(t, os.MkdirAll(e.root, 0o755))
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e.m = fs.NewMaterializer(e.root, e.state, pkgtest.Codec(t), fs.NewHasher(), fs.WithClock(func() time.Time { return fixed }))
	return e
}

func (e *env) stage(t *testing.T, txID string, manifest domain.Package, files map[string]string) *domain.StagedPackage {
	t.Helper()
	built := pkgtest.Build(t, manifest, files)
	sp, err := e.m.Stage(context.Background(), txID, &built.Manifest, built.Archive)
	require.NoError(t, err)
	return sp
}

func (e *env) read(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(p)))
	require.NoError(t, err)
	return string(data)
}

func (e *env) exists(p string) bool {
	_, err := os.Lstat(filepath.Join(e.root, filepath.FromSlash(p)))
	return err == nil
}

func TestMaterializer_InstallAndRemove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	db := domain.NewInstalledDB()

	sp := e.stage(t, "tx1", domain.Package{
		Name:    "hello",
		Version: "1.0.0",
		Files:   []domain.FileEntry{{Path: "etc/hello.conf", Ghost: true}},
	}, map[string]string{
		"usr/bin/hello":          "bin",
		"usr/share/hello/README": "docs",
	})
	require.NoError(t, e.m.CheckOwnership(db, []*domain.StagedPackage{sp}, nil))

	installed, err := e.m.Install(ctx, sp, db)
	require.NoError(t, err)
	assert.Equal(t, "bin", e.read(t, "usr/bin/hello"))
	assert.False(t, e.exists("etc/hello.conf"), "ghost files are not created")
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), installed.InstalledAt)

	require.Len(t, installed.Files, 3)
	assert.Equal(t, domain.OwnedFile{Path: "etc/hello.conf", Ghost: true}, installed.Files[0])
	assert.NotZero(t, installed.Files[1].Fingerprint)
	db.Put(*installed)

	require.NoError(t, e.m.Discard("tx1"))
	_, err = os.Stat(domain.StagingPath(e.state, "tx1"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, e.m.Remove(ctx, installed, db))
	assert.False(t, e.exists("usr/bin/hello"))
	assert.False(t, e.exists("usr/share/hello"), "empty directories are pruned")
	assert.True(t, e.exists(""), "the root itself is never pruned")
}

func TestMaterializer_RemoveKeepsSharedPaths(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	db := domain.NewInstalledDB()

	a := e.stage(t, "tx", domain.Package{
		Name:    "a",
		Version: "1.0.0",
		Files:   []domain.FileEntry{{Path: "etc/shared.conf", Ghost: true}},
	}, map[string]string{"usr/bin/a": "a"})
	installedA, err := e.m.Install(ctx, a, db)
	require.NoError(t, err)
	db.Put(*installedA)

	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.root, "etc", "shared.conf"), []byte("x"), 0o644))
	db.Put(domain.InstalledPackage{
		Package: domain.Package{Name: "b", Version: "1.0.0"},
		Files:   []domain.OwnedFile{{Path: "etc/shared.conf", Ghost: true}},
	})

	require.NoError(t, e.m.Remove(ctx, installedA, db))
	assert.False(t, e.exists("usr/bin/a"))
	assert.True(t, e.exists("etc/shared.conf"), "a path claimed by a surviving package stays")
}

func TestMaterializer_RemoveToleratesMissingFiles(t *testing.T) {
	e := newEnv(t)
	pkg := &domain.InstalledPackage{
		Package: domain.Package{Name: "gone", Version: "1.0.0"},
		Files:   []domain.OwnedFile{{Path: "usr/bin/gone"}},
	}
	require.NoError(t, e.m.Remove(context.Background(), pkg, domain.NewInstalledDB()))
}

func TestMaterializer_FailedInstallLeavesNoOrphans(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	db := domain.NewInstalledDB()
	files := map[string]string{
		"usr/bin/tool":       "bin",
		"usr/share/tool/doc": "docs",
	}

	sp := e.stage(t, "tx1", domain.Package{Name: "tool", Version: "1.0.0"}, files)
	require.NoError(t, e.m.CheckOwnership(db, []*domain.StagedPackage{sp}, nil))

	blocker := filepath.Join(e.root, "usr", "share")
	require.NoError(t, os.MkdirAll(filepath.Dir(blocker), 0o755))
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	_, err := e.m.Install(ctx, sp, db)
	require.ErrorIs(t, err, domain.ErrWrite)
	assert.False(t, e.exists("usr/bin/tool"), "files placed before the failure are taken back")

	require.NoError(t, os.Remove(blocker))
	retry := e.stage(t, "tx2", domain.Package{Name: "tool", Version: "1.0.0"}, files)
	require.NoError(t, e.m.CheckOwnership(db, []*domain.StagedPackage{retry}, nil))
	_, err = e.m.Install(ctx, retry, db)
	require.NoError(t, err)
	assert.Equal(t, "docs", e.read(t, "usr/share/tool/doc"))
}

func TestMaterializer_FailedReplaceKeepsOwnedFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	db := domain.NewInstalledDB()

	v1 := e.stage(t, "tx1", domain.Package{Name: "tool", Version: "1.0.0"}, map[string]string{"usr/bin/tool": "v1"})
	installed, err := e.m.Install(ctx, v1, db)
	require.NoError(t, err)
	db.Put(*installed)

	v2 := e.stage(t, "tx2", domain.Package{Name: "tool", Version: "2.0.0"}, map[string]string{
		"usr/bin/tool":       "v2",
		"usr/share/tool/doc": "docs",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "usr"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.root, "usr", "share"), []byte("x"), 0o644))

	_, err = e.m.Install(ctx, v2, db)
	require.ErrorIs(t, err, domain.ErrWrite)
	assert.True(t, e.exists("usr/bin/tool"), "a path the database already records is left in place")
}

func TestMaterializer_ReplaceRemovesDroppedFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	db := domain.NewInstalledDB()

	v1 := e.stage(t, "tx1", domain.Package{Name: "tool", Version: "1.0.0"}, map[string]string{
		"usr/bin/tool":     "v1",
		"usr/lib/tool/old": "old",
	})
	installed, err := e.m.Install(ctx, v1, db)
	require.NoError(t, err)
	db.Put(*installed)

	v2 := e.stage(t, "tx2", domain.Package{Name: "tool", Version: "2.0.0"}, map[string]string{
		"usr/bin/tool": "v2",
	})
	require.NoError(t, e.m.CheckOwnership(db, []*domain.StagedPackage{v2}, nil), "a package may overwrite its own files")

	installed, err = e.m.Install(ctx, v2, db)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", installed.Version())
	assert.Equal(t, "v2", e.read(t, "usr/bin/tool"))
	assert.False(t, e.exists("usr/lib/tool/old"))
	assert.False(t, e.exists("usr/lib/tool"))
}

func TestMaterializer_CheckOwnership(t *testing.T) {
	e := newEnv(t)
	db := domain.NewInstalledDB()
	db.Put(domain.InstalledPackage{
		Package: domain.Package{Name: "owner", Version: "1.0.0"},
		Files:   []domain.OwnedFile{{Path: "usr/bin/x"}, {Path: "etc/ghost", Ghost: true}},
	})

	x := e.stage(t, "tx", domain.Package{Name: "x", Version: "1.0.0"}, map[string]string{"usr/bin/x": "mine"})
	y := e.stage(t, "tx", domain.Package{Name: "y", Version: "1.0.0"}, map[string]string{"usr/bin/x": "theirs"})
	z := e.stage(t, "tx", domain.Package{Name: "z", Version: "1.0.0"}, map[string]string{"etc/ghost": "real"})
	w := e.stage(t, "tx", domain.Package{Name: "w", Version: "1.0.0"}, map[string]string{"opt/w": "w"})

	t.Run("installed owner", func(t *testing.T) {
		err := e.m.CheckOwnership(db, []*domain.StagedPackage{x}, nil)
		var conflict *domain.FileConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, domain.FileConflictError{Path: "usr/bin/x", Package: "x", Owner: "owner"}, *conflict)
		require.ErrorIs(t, err, domain.ErrFileConflict)
	})

	t.Run("owner being replaced", func(t *testing.T) {
		require.NoError(t, e.m.CheckOwnership(db, []*domain.StagedPackage{x}, []string{"owner"}))
	})

	t.Run("two staged packages", func(t *testing.T) {
		err := e.m.CheckOwnership(domain.NewInstalledDB(), []*domain.StagedPackage{x, y}, nil)
		var conflict *domain.FileConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "y", conflict.Package)
		assert.Equal(t, "x", conflict.Owner)
	})

	t.Run("ghost claim is shared", func(t *testing.T) {
		require.NoError(t, e.m.CheckOwnership(db, []*domain.StagedPackage{z}, nil))
	})

	t.Run("unmanaged file", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(e.root, "opt"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(e.root, "opt", "w"), []byte("local"), 0o644))

		err := e.m.CheckOwnership(db, []*domain.StagedPackage{w}, nil)
		var conflict *domain.FileConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Empty(t, conflict.Owner)
		assert.Equal(t, "local", e.read(t, "opt/w"))
	})
}

func TestMaterializer_StageRejectsTampering(t *testing.T) {
	e := newEnv(t)
	built := pkgtest.Build(t, domain.Package{Name: "t", Version: "1.0.0"}, map[string]string{"usr/bin/t": "t"})
	built.Archive[len(built.Archive)/2] ^= 0xff

	_, err := e.m.Stage(context.Background(), "tx", &built.Manifest, built.Archive)
	require.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestMaterializer_StageRejectsManifestMismatch(t *testing.T) {
	e := newEnv(t)
	built := pkgtest.Build(t, domain.Package{Name: "t", Version: "1.0.0"}, map[string]string{"usr/bin/t": "t"})
	manifest := built.Manifest.Clone()
	manifest.Files = append(manifest.Files, domain.FileEntry{Path: "usr/bin/extra"})

	_, err := e.m.Stage(context.Background(), "tx", &manifest, built.Archive)
	require.ErrorIs(t, err, domain.ErrCorruptArchive)
}

func TestMaterializer_Symlink(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, domain.ManifestFileName), []byte("name: ln\nversion: 1.0.0\n"), 0o600))
	bin := filepath.Join(src, domain.SourceDirName, "usr", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "tool-1"), []byte("tool"), 0o755))
	require.NoError(t, os.Symlink("tool-1", filepath.Join(bin, "tool")))

	built, err := pkgtest.Codec(t).CreatePackage(context.Background(), src)
	require.NoError(t, err)
	sp, err := e.m.Stage(context.Background(), "tx", &built.Manifest, built.Archive)
	require.NoError(t, err)
	_, err = e.m.Install(context.Background(), sp, domain.NewInstalledDB())
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(e.root, "usr", "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "tool-1", target)
}

func TestMaterializer_WriteFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.m.WriteFile("/etc/motd", []byte("hi"), 0o644))
	assert.Equal(t, "hi", e.read(t, "etc/motd"))

	err := e.m.WriteFile("../escape", []byte("x"), 0o644)
	require.ErrorIs(t, err, domain.ErrWrite)
}
