// Package syncer pulls repository listings into the local cache and publishes packages
// to repositories.
package syncer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	fsadapter "go.trai.ch/gany/internal/adapters/fs" //nolint:depguard // atomic writes of built packages
	"go.trai.ch/gany/internal/adapters/wire"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Syncer moves listings between repository addresses and the local repository store.
type Syncer struct {
	store     ports.RepositoryStore
	fetcher   ports.Fetcher
	publisher ports.Publisher
	codec     ports.ArchiveCodec
	telemetry ports.Telemetry
}

// New creates a Syncer.
func New(
	store ports.RepositoryStore,
	fetcher ports.Fetcher,
	publisher ports.Publisher,
	codec ports.ArchiveCodec,
	telemetry ports.Telemetry,
) *Syncer {
	return &Syncer{
		store:     store,
		fetcher:   fetcher,
		publisher: publisher,
		codec:     codec,
		telemetry: telemetry,
	}
}

// Refresh fetches the listing of every configured repository in parallel and replaces
// each cached snapshot that was fetched and decoded successfully.
func (s *Syncer) Refresh(ctx context.Context) (domain.SyncReport, error) {
	repos, err := s.store.LoadRepositories(ctx)
	if err != nil {
		return domain.SyncReport{}, err
	}

	snapshots := make([]domain.Snapshot, len(repos))
	g := new(errgroup.Group)
	for i := range repos {
		desc := repos[i].RepositoryDescriptor
		g.Go(func() error {
			snapshots[i] = s.fetch(ctx, desc)
			return nil
		})
	}
	_ = g.Wait()

	return s.store.SyncRepositories(ctx, snapshots)
}

func (s *Syncer) fetch(ctx context.Context, desc domain.RepositoryDescriptor) domain.Snapshot {
	ctx, vertex := s.telemetry.Record(ctx, "sync "+desc.Name)
	snap := domain.Snapshot{Repository: desc}

	data, err := s.fetcher.FetchListing(ctx, desc.Address)
	if err == nil {
		var listing *domain.Listing
		listing, err = wire.DecodeListing(data)
		if err == nil {
			snap.Listing = *listing
		}
	}
	if err != nil {
		snap.Err = zerr.With(zerr.Wrap(err, "failed to refresh listing"), "repository", desc.Name)
	}
	vertex.Complete(snap.Err)
	return snap
}

// Push publishes packages to the named repository and merges the published listing into
// the local cache. A source is a package source tree, a binary manifest next to its
// archive, or a directory of binary manifests.
func (s *Syncer) Push(ctx context.Context, name string, sources []string) ([]domain.Package, error) {
	repos, err := s.store.LoadRepositories(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(repos, func(r domain.Repository) bool { return r.Name == name })
	if idx < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrRepositoryNotFound, "cannot push"), "repository", name)
	}
	repo := repos[idx]

	files := make(map[string][]byte)
	var pushed []domain.Package
	for _, src := range sources {
		built, err := s.load(ctx, src)
		if err != nil {
			return nil, err
		}
		for _, b := range built {
			files[domain.ArchiveFileName(b.Manifest.Name, b.Manifest.Version)] = b.Archive
			pushed = append(pushed, b.Manifest)
		}
	}
	if len(pushed) == 0 {
		return nil, zerr.Wrap(domain.ErrNoTargetsSpecified, "no packages found to push")
	}

	listing := merge(repo.Listing(), pushed)
	listing.Name = repo.Name
	encoded, err := wire.EncodeListing(&listing)
	if err != nil {
		return nil, err
	}

	ctx, vertex := s.telemetry.Record(ctx, "push "+name)
	err = s.publisher.Publish(ctx, repo.Address, ports.Publication{Listing: encoded, Files: files})
	vertex.Complete(err)
	if err != nil {
		return nil, err
	}

	report, err := s.store.SyncRepositories(ctx, []domain.Snapshot{{Repository: repo.RepositoryDescriptor, Listing: listing}})
	if err != nil {
		return nil, err
	}
	if cause, failed := report.Failed[name]; failed {
		return nil, zerr.With(zerr.Wrap(cause, "published but failed to update the local cache"), "repository", name)
	}
	return pushed, nil
}

// Build packs the package source tree at src and writes <name>-<version>.gany and its
// binary manifest into outDir.
func (s *Syncer) Build(ctx context.Context, src, outDir string) (*domain.Package, error) {
	built, err := s.codec.CreatePackage(ctx, src)
	if err != nil {
		return nil, err
	}
	info, err := s.codec.EncodeManifest(&built.Manifest)
	if err != nil {
		return nil, err
	}
	m := built.Manifest
	if err := fsadapter.WriteFileAtomic(filepath.Join(outDir, domain.ArchiveFileName(m.Name, m.Version)), built.Archive, domain.FilePerm); err != nil {
		return nil, err
	}
	if err := fsadapter.WriteFileAtomic(filepath.Join(outDir, domain.InfoFileName(m.Name, m.Version)), info, domain.FilePerm); err != nil {
		return nil, err
	}
	return &m, nil
}

// merge replaces listed packages that share a name and version with a pushed one.
func merge(listing domain.Listing, pushed []domain.Package) domain.Listing {
	ids := make(map[string]bool, len(pushed))
	for i := range pushed {
		ids[pushed[i].ID()] = true
	}
	kept := listing.Packages[:0:0]
	for i := range listing.Packages {
		if !ids[listing.Packages[i].ID()] {
			kept = append(kept, listing.Packages[i])
		}
	}
	for i := range pushed {
		p := pushed[i].Clone()
		p.Repository = ""
		kept = append(kept, p)
	}
	listing.Packages = kept
	return listing
}

func (s *Syncer) load(ctx context.Context, src string) ([]*ports.BuiltPackage, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot read package source"), "path", src)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(src, domain.InfoExt) {
			return nil, zerr.With(zerr.New("expected a package source tree or a binary manifest"), "path", src)
		}
		b, err := s.loadInfo(src)
		if err != nil {
			return nil, err
		}
		return []*ports.BuiltPackage{b}, nil
	}

	if _, err := os.Stat(filepath.Join(src, domain.ManifestFileName)); err == nil {
		b, err := s.codec.CreatePackage(ctx, src)
		if err != nil {
			return nil, err
		}
		return []*ports.BuiltPackage{b}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, "cannot read package source"), "path", src)
	}

	infos, err := filepath.Glob(filepath.Join(src, "*"+domain.InfoExt))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot list binary manifests"), "path", src)
	}
	out := make([]*ports.BuiltPackage, 0, len(infos))
	for _, p := range infos {
		b, err := s.loadInfo(p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// loadInfo reads a binary manifest and the archive stored next to it.
func (s *Syncer) loadInfo(path string) (*ports.BuiltPackage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot read binary manifest"), "path", path)
	}
	pkg, err := s.codec.DecodeManifest(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	archivePath := filepath.Join(filepath.Dir(path), domain.ArchiveFileName(pkg.Name, pkg.Version))
	archive, err := os.ReadFile(archivePath) //nolint:gosec // sibling of a user provided manifest
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot read archive"), "path", archivePath)
	}
	return &ports.BuiltPackage{Manifest: *pkg, Archive: archive}, nil
}
