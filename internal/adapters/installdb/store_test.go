package installdb_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/installdb"
	"go.trai.ch/gany/internal/core/domain"
)

func installed(name, version string, files ...string) domain.InstalledPackage {
	p := domain.InstalledPackage{
		Package:     domain.Package{Name: name, Version: version, Arch: domain.ArchAny},
		InstalledAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Repository:  "main",
	}
	for _, f := range files {
		p.Files = append(p.Files, domain.OwnedFile{Path: f, Fingerprint: 42})
	}
	return p
}

func TestStore_EmptyWhenMissing(t *testing.T) {
	store, err := installdb.NewStore(filepath.Join(t.TempDir(), "installed.json"))
	require.NoError(t, err)

	db, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())
}

func TestStore_CommitAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "installed.json")
	store, err := installdb.NewStore(path)
	require.NoError(t, err)

	db, err := store.Snapshot()
	require.NoError(t, err)
	db.Put(installed("hello", "1.0.0", "usr/bin/hello"))
	db.Put(installed("libc", "2.1.0", "usr/lib/libc.so"))
	require.NoError(t, store.Commit(db))

	reopened, err := installdb.NewStore(path)
	require.NoError(t, err)
	got, err := reopened.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, db, got)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store, err := installdb.NewStore(filepath.Join(t.TempDir(), "installed.json"))
	require.NoError(t, err)

	db, err := store.Snapshot()
	require.NoError(t, err)
	db.Put(installed("hello", "1.0.0"))

	again, err := store.Snapshot()
	require.NoError(t, err)
	assert.False(t, again.Has("hello"), "uncommitted changes must not leak into the store")

	require.NoError(t, store.Commit(db))
	db.Delete("hello")

	again, err = store.Snapshot()
	require.NoError(t, err)
	assert.True(t, again.Has("hello"), "committed state must not alias the caller's copy")
}

func TestStore_FailedCommitKeepsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "installed.json")
	store, err := installdb.NewStore(path)
	require.NoError(t, err)

	db, err := store.Snapshot()
	require.NoError(t, err)
	db.Put(installed("hello", "1.0.0"))
	require.NoError(t, store.Commit(db))
	committed, err := os.ReadFile(path)
	require.NoError(t, err)

	next, err := store.Snapshot()
	require.NoError(t, err)
	next.Delete("hello")

	// A directory in place of the file makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o750))

	err = store.Commit(next)
	require.ErrorIs(t, err, domain.ErrWrite)
	_, err = store.Snapshot()
	require.Error(t, err, "an unreadable database is reported rather than served from memory")

	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, os.WriteFile(path, committed, 0o600))
	current, err := store.Snapshot()
	require.NoError(t, err)
	assert.True(t, current.Has("hello"))
}

func TestStore_SnapshotSeesOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.json")
	first, err := installdb.NewStore(path)
	require.NoError(t, err)
	second, err := installdb.NewStore(path)
	require.NoError(t, err)

	db, err := second.Snapshot()
	require.NoError(t, err)
	db.Put(installed("a", "1.0.0", "usr/bin/a"))
	require.NoError(t, second.Commit(db))

	db, err = first.Snapshot()
	require.NoError(t, err)
	require.True(t, db.Has("a"), "a store opened earlier must see later commits")
	db.Put(installed("b", "1.0.0", "usr/bin/b"))
	require.NoError(t, first.Commit(db))

	reopened, err := installdb.NewStore(path)
	require.NoError(t, err)
	got, err := reopened.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Names())
}

func TestStore_Corruption(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{"},
		{name: "wrong version", content: `{"version": 99, "packages": {}}`},
		{name: "mismatched key", content: `{"version": 1, "packages": {"a": {"package": {"name": "b", "version": "1.0.0"}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "installed.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := installdb.NewStore(path)
			require.ErrorIs(t, err, domain.ErrStoreCorruption)
		})
	}
}

func TestJournal(t *testing.T) {
	j := installdb.NewJournal(filepath.Join(t.TempDir(), "journal.json"))

	last, err := j.Last()
	require.NoError(t, err)
	assert.Nil(t, last)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tx := domain.NewTransaction("tx-1", domain.InstallIntent(domain.Request{Name: "hello"}), now)
	tx.Plan = domain.Plan{Actions: []domain.Action{domain.Install(domain.Package{Name: "hello", Version: "1.0.0"})}}
	require.NoError(t, tx.Transition(domain.TxStaged))
	require.NoError(t, tx.Transition(domain.TxCommitting))
	require.NoError(t, tx.Finish(domain.TxPartiallyCommitted, errors.New("disk full"), now.Add(time.Second)))
	require.NoError(t, j.Record(tx))

	last, err = j.Last()
	require.NoError(t, err)
	assert.Equal(t, tx, last)
}
