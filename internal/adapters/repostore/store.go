// Package repostore persists repository descriptors and their cached listings.
package repostore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	ganyfs "go.trai.ch/gany/internal/adapters/fs"
	"go.trai.ch/gany/internal/adapters/schema"
	"go.trai.ch/gany/internal/adapters/wire"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var _ ports.RepositoryStore = (*Store)(nil)

// reposFile is the on-disk form of repos.yaml.
type reposFile struct {
	Repositories []domain.RepositoryDescriptor `yaml:"repositories"`
}

// Store implements ports.RepositoryStore. Descriptors live in repos.yaml and every
// repository has its own CBOR cache, so syncing one never rewrites another.
type Store struct {
	stateDir string
	mu       sync.RWMutex
}

// NewStore creates a Store rooted at stateDir.
func NewStore(stateDir string) *Store {
	return &Store{stateDir: stateDir}
}

func (s *Store) readDescriptors() ([]domain.RepositoryDescriptor, error) {
	path := domain.ReposFilePath(s.stateDir)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the state directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read repository list"), "path", path)
	}

	var file reposFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, err.Error()), "path", path)
	}

	seen := make(map[string]bool, len(file.Repositories))
	for _, desc := range file.Repositories {
		if err := schema.Validate(desc, domain.ErrStoreCorruption); err != nil {
			return nil, zerr.With(err, "path", path)
		}
		if seen[desc.Name] {
			return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, "repository listed twice"), "repository", desc.Name)
		}
		seen[desc.Name] = true
	}
	return file.Repositories, nil
}

func (s *Store) writeDescriptors(descs []domain.RepositoryDescriptor) error {
	data, err := yaml.Marshal(reposFile{Repositories: descs})
	if err != nil {
		return zerr.Wrap(err, "failed to encode repository list")
	}
	return ganyfs.WriteFileAtomic(domain.ReposFilePath(s.stateDir), data, domain.FilePerm)
}

func (s *Store) readCache(desc domain.RepositoryDescriptor) (domain.Repository, error) {
	path := domain.ListingPath(s.stateDir, desc.Name)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the state directory
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewRepository(desc, domain.Listing{}, time.Time{}), nil
	}
	if err != nil {
		return domain.Repository{}, zerr.With(zerr.Wrap(err, "failed to read repository cache"), "path", path)
	}

	var cached domain.Repository
	if err := wire.Unmarshal(data, &cached); err != nil {
		return domain.Repository{}, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, err.Error()), "path", path)
	}
	if cached.Name != desc.Name {
		return domain.Repository{}, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, "cache belongs to another repository"),
			"repository", desc.Name)
	}

	listing := cached.Listing()
	if err := schema.Validate(listing, domain.ErrStoreCorruption); err != nil {
		return domain.Repository{}, zerr.With(err, "path", path)
	}
	return domain.NewRepository(desc, listing, cached.SyncedAt), nil
}

func (s *Store) writeCache(repo domain.Repository) error {
	data, err := wire.Marshal(repo)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to encode repository cache"), "repository", repo.Name)
	}
	return ganyfs.WriteFileAtomic(domain.ListingPath(s.stateDir, repo.Name), data, domain.FilePerm)
}

// LoadRepositories returns every configured repository in configuration order.
func (s *Store) LoadRepositories(ctx context.Context) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	descs, err := s.readDescriptors()
	if err != nil {
		return nil, err
	}

	repos := make([]domain.Repository, 0, len(descs))
	for _, desc := range descs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		repo, err := s.readCache(desc)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// AddRepository registers desc. Nothing is fetched until the next sync.
func (s *Store) AddRepository(_ context.Context, desc domain.RepositoryDescriptor) (domain.Repository, error) {
	if _, err := domain.ParseAddress(desc.Address); err != nil {
		return domain.Repository{}, err
	}
	if !schema.ValidName(desc.Name) {
		return domain.Repository{}, zerr.With(zerr.Wrap(domain.ErrInvalidAddress, "invalid repository name"), "repository", desc.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	descs, err := s.readDescriptors()
	if err != nil {
		return domain.Repository{}, err
	}
	if slices.ContainsFunc(descs, func(d domain.RepositoryDescriptor) bool { return d.Name == desc.Name }) {
		return domain.Repository{}, zerr.With(zerr.Wrap(domain.ErrDuplicateRepository, "name is taken"), "repository", desc.Name)
	}

	if err := s.writeDescriptors(append(descs, desc)); err != nil {
		return domain.Repository{}, err
	}
	return domain.NewRepository(desc, domain.Listing{}, time.Time{}), nil
}

// AddRepositoryWithURL registers a repository named after its address.
func (s *Store) AddRepositoryWithURL(ctx context.Context, address string) (domain.Repository, error) {
	name, err := domain.RepositoryNameFromAddress(address)
	if err != nil {
		return domain.Repository{}, err
	}
	return s.AddRepository(ctx, domain.RepositoryDescriptor{Name: name, Address: address})
}

// RemoveRepository forgets a repository and deletes its cache.
func (s *Store) RemoveRepository(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	descs, err := s.readDescriptors()
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(descs, func(d domain.RepositoryDescriptor) bool { return d.Name == name })
	if idx < 0 {
		return zerr.With(zerr.Wrap(domain.ErrRepositoryNotFound, "not configured"), "repository", name)
	}

	if err := s.writeDescriptors(slices.Delete(descs, idx, idx+1)); err != nil {
		return err
	}
	if err := os.Remove(domain.ListingPath(s.stateDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove repository cache"), "repository", name)
	}
	return nil
}

// SyncRepositories replaces the cache of every snapshot that was fetched successfully.
// Caches are written in parallel; a failure only affects its own repository.
func (s *Store) SyncRepositories(ctx context.Context, snapshots []domain.Snapshot) (domain.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.SyncReport{Failed: make(map[string]error)}
	descs, err := s.readDescriptors()
	if err != nil {
		return report, err
	}

	now := time.Now().UTC()
	results := make([]error, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	for i, snap := range snapshots {
		if snap.Err != nil {
			results[i] = snap.Err
			continue
		}
		if !slices.ContainsFunc(descs, func(d domain.RepositoryDescriptor) bool { return d.Name == snap.Repository.Name }) {
			results[i] = zerr.With(zerr.Wrap(domain.ErrRepositoryNotFound, "not configured"), "repository", snap.Repository.Name)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			results[i] = s.writeCache(domain.NewRepository(snap.Repository, snap.Listing, now))
			return nil
		})
	}
	_ = g.Wait()

	for i, snap := range snapshots {
		name := snap.Repository.Name
		if results[i] != nil {
			report.Failed[name] = results[i]
			continue
		}
		report.Updated = append(report.Updated, name)
	}
	slices.Sort(report.Updated)
	return report, nil
}
