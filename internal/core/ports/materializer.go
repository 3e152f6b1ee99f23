package ports

import (
	"context"
	"io/fs"

	"go.trai.ch/gany/internal/core/domain"
)

//go:generate mockgen -source=materializer.go -destination=mocks/mock_materializer.go -package=mocks

// Materializer applies plan actions to the filesystem.
type Materializer interface {
	// Stage verifies and extracts archive into the staging area of the transaction.
	Stage(ctx context.Context, txID string, pkg *domain.Package, archive []byte) (*domain.StagedPackage, error)

	// CheckOwnership fails with a domain.FileConflictError when a staged package claims a
	// path owned by another package that survives the plan, by another staged package,
	// or by an unmanaged file. Packages named in replaced are considered gone.
	CheckOwnership(db *domain.InstalledDB, staged []*domain.StagedPackage, replaced []string) error

	// Install moves staged files into place. When db holds an older version of the package,
	// the files it no longer owns are removed the same way Remove does.
	Install(ctx context.Context, staged *domain.StagedPackage, db *domain.InstalledDB) (*domain.InstalledPackage, error)

	// Remove deletes every file exclusively owned by pkg. Paths also claimed by a package
	// in db other than pkg are kept.
	Remove(ctx context.Context, pkg *domain.InstalledPackage, db *domain.InstalledDB) error

	// Discard deletes the staging area of a transaction.
	Discard(txID string) error

	// WriteFile atomically replaces path below the install root.
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

// Hasher fingerprints file content.
type Hasher interface {
	ComputeFileHash(path string) (uint64, error)
}

// Verifier compares installed packages against the filesystem.
type Verifier interface {
	Verify(pkg *domain.InstalledPackage) ([]domain.FileIssue, error)
}

// Locker is a system-wide mutual exclusion between transactions.
type Locker interface {
	// TryLock fails with domain.ErrLocked when the lock is held elsewhere.
	TryLock() error
	Unlock() error
}
