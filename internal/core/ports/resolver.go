package ports

import "go.trai.ch/gany/internal/core/domain"

// Resolver turns an intent into an ordered plan.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type Resolver interface {
	// Resolve never mutates db or universe.
	Resolve(db *domain.InstalledDB, universe *domain.Universe, intent domain.Intent) (*domain.Plan, error)
}
