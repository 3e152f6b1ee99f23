package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier compares installed packages with what is on disk below root.
type Verifier struct {
	root   string
	hasher *Hasher
}

// NewVerifier creates a new Verifier.
func NewVerifier(root string, hasher *Hasher) *Verifier {
	return &Verifier{root: root, hasher: hasher}
}

// Verify reports owned files that are missing or whose content changed since install.
// Ghost files are not checked.
func (v *Verifier) Verify(pkg *domain.InstalledPackage) ([]domain.FileIssue, error) {
	var issues []domain.FileIssue
	for _, f := range pkg.Files {
		if f.Ghost {
			continue
		}
		path := filepath.Join(v.root, filepath.FromSlash(f.Path))
		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				issues = append(issues, domain.FileIssue{Package: pkg.Name(), Path: f.Path, Problem: domain.IssueMissing})
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to stat installed file"), "path", path)
		}
		if f.Fingerprint == 0 {
			continue
		}
		sum, err := v.hasher.Fingerprint(path)
		if err != nil {
			return nil, err
		}
		if sum != f.Fingerprint {
			issues = append(issues, domain.FileIssue{Package: pkg.Name(), Path: f.Path, Problem: domain.IssueModified})
		}
	}
	return issues, nil
}
