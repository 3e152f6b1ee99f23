// Package installdb persists the installed package database and the transaction journal.
package installdb

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	ganyfs "go.trai.ch/gany/internal/adapters/fs"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InstalledStore = (*Store)(nil)

// Store implements ports.InstalledStore using a flat JSON file.
// Every Commit replaces the whole file and every Snapshot reads it again, so a
// process holding the system lock always works on what the last holder committed.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore opens the database at path. A missing file is an empty database.
func NewStore(path string) (*Store, error) {
	s := &Store{path: filepath.Clean(path)}
	if _, err := s.Snapshot(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot reads the persisted database. The result is owned by the caller.
func (s *Store) Snapshot() (*domain.InstalledDB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *Store) read() (*domain.InstalledDB, error) {
	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewInstalledDB(), nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read installed database"), "path", s.path)
	}

	if len(data) == 0 {
		return domain.NewInstalledDB(), nil
	}

	db := domain.NewInstalledDB()
	if err := json.Unmarshal(data, db); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, err.Error()), "path", s.path)
	}
	if db.Version != domain.InstalledDBVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, "unsupported installed database version"),
			"version", db.Version)
	}
	if db.Packages == nil {
		db.Packages = make(map[string]domain.InstalledPackage)
	}
	for name, p := range db.Packages {
		if name != p.Name() {
			return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, "entry is keyed under the wrong name"),
				"package", name)
		}
	}
	return db, nil
}

// Commit atomically replaces the persisted database.
func (s *Store) Commit(db *domain.InstalledDB) error {
	next := db.Clone()
	next.Version = domain.InstalledDBVersion

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal installed database")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return ganyfs.WriteFileAtomic(s.path, data, domain.FilePerm)
}
