package ports

import (
	"context"

	"go.trai.ch/gany/internal/core/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// InstalledStore persists the installed package database.
type InstalledStore interface {
	// Snapshot returns a copy of the database that callers may freely modify.
	Snapshot() (*domain.InstalledDB, error)

	// Commit atomically replaces the persisted database with db.
	Commit(db *domain.InstalledDB) error
}

// Journal persists the record of the last transaction.
type Journal interface {
	Record(tx *domain.Transaction) error
	Last() (*domain.Transaction, error)
}

// RepositoryStore persists repository descriptors and their cached listings.
type RepositoryStore interface {
	// LoadRepositories returns every configured repository with its cached listing.
	// Malformed persisted state fails with domain.ErrStoreCorruption and nothing is returned.
	LoadRepositories(ctx context.Context) ([]domain.Repository, error)

	// AddRepository registers a new repository.
	AddRepository(ctx context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error)

	// AddRepositoryWithURL registers a repository named after its address.
	AddRepositoryWithURL(ctx context.Context, url string) (domain.Repository, error)

	// RemoveRepository forgets a repository and its cached listing.
	RemoveRepository(ctx context.Context, name string) error

	// SyncRepositories replaces the cached listing of every successfully fetched snapshot.
	// Repositories whose snapshot failed keep their previous listing.
	SyncRepositories(ctx context.Context, snapshots []domain.Snapshot) (domain.SyncReport, error)
}
