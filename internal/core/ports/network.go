package ports

import (
	"context"

	"go.trai.ch/gany/internal/core/domain"
)

//go:generate mockgen -source=network.go -destination=mocks/mock_network.go -package=mocks

// Fetcher downloads repository content. Implementations own their timeout policy.
type Fetcher interface {
	FetchListing(ctx context.Context, address string) ([]byte, error)
	FetchArchive(ctx context.Context, address string, pkg *domain.Package) ([]byte, error)
}

// Publication is the content pushed to a repository address.
type Publication struct {
	Listing []byte
	// Files maps file names, relative to the repository address, to their content.
	Files map[string][]byte
}

// Publisher uploads repository content.
type Publisher interface {
	Publish(ctx context.Context, address string, pub Publication) error
}
