package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/zerr"
)

// WriteFileAtomic replaces path with data. Readers observe either the previous content
// or the new content, never a partial write. Failures wrap domain.ErrWrite.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return writeErr(err, path)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return writeErr(err, path)
	}
	tmpName := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return writeErr(err, path)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return writeErr(err, path)
	}
	if err := tmpFile.Close(); err != nil {
		return writeErr(err, path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return writeErr(err, path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return writeErr(err, path)
	}
	success = true
	if err := syncDir(dir); err != nil {
		return writeErr(err, path)
	}
	return nil
}

// syncDir makes a rename inside dir durable. Filesystems that cannot sync directories
// report EINVAL, which is ignored.
func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // dir is the parent of a path we just wrote
	if err != nil {
		return err
	}
	err = d.Sync()
	closeErr := d.Close()
	if err != nil && !errors.Is(err, syscall.EINVAL) {
		return err
	}
	return closeErr
}

func writeErr(err error, path string) error {
	return zerr.With(zerr.Wrap(domain.ErrWrite, err.Error()), "path", path)
}
