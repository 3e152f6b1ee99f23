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

var _ ports.Journal = (*Journal)(nil)

// Journal keeps the record of the most recent transaction in a JSON file.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal creates a Journal stored at path.
func NewJournal(path string) *Journal {
	return &Journal{path: filepath.Clean(path)}
}

// Record replaces the journal with tx.
func (j *Journal) Record(tx *domain.Transaction) error {
	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal transaction")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return ganyfs.WriteFileAtomic(j.path, data, domain.FilePerm)
}

// Last returns the recorded transaction, or nil when none was recorded yet.
func (j *Journal) Last() (*domain.Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read journal"), "path", j.path)
	}

	var tx domain.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, err.Error()), "path", j.path)
	}
	return &tx, nil
}
