// Package pkgtest builds real package archives for tests.
package pkgtest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.trai.ch/gany/internal/adapters/archive"
	"go.trai.ch/gany/internal/adapters/compress"
	"go.trai.ch/gany/internal/adapters/digest"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Codec returns an lz4 / sha3-256 archive codec.
func Codec(t testing.TB) *archive.Codec {
	t.Helper()
	c, err := compress.New(domain.LZ4)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	d, err := digest.New(domain.SHA3)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	return archive.New(c, d)
}

// Source writes a package source tree for manifest holding files and returns its directory.
// When manifest lists no files, the file list is derived from files at pack time.
func Source(t testing.TB, manifest domain.Package, files map[string]string) string {
	t.Helper()
	if manifest.Arch == "" {
		manifest.Arch = domain.ArchAny
	}
	dir := t.TempDir()
	data, err := yaml.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, domain.ManifestFileName), data, domain.FilePerm); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	for p, content := range files {
		full := filepath.Join(dir, domain.SourceDirName, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), domain.DirPerm); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), domain.FilePerm); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return dir
}

// Build writes a source tree with Source and packs it.
func Build(t testing.TB, manifest domain.Package, files map[string]string) *ports.BuiltPackage {
	t.Helper()
	built, err := Codec(t).CreatePackage(context.Background(), Source(t, manifest, files))
	if err != nil {
		t.Fatalf("create package %s: %v", manifest.ID(), err)
	}
	return built
}

// Fetcher serves archives from memory. It implements ports.Fetcher.
type Fetcher struct {
	mu       sync.Mutex
	archives map[string][]byte
	listings map[string][]byte
	failures map[string]error
	fetched  []string
}

var _ ports.Fetcher = (*Fetcher)(nil)

// NewFetcher creates an empty Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		archives: make(map[string][]byte),
		listings: make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// AddArchive serves archive for the package built as pkg.
func (f *Fetcher) AddArchive(pkg domain.Package, archive []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives[pkg.ID()] = archive
}

// AddListing serves data as the listing of address.
func (f *Fetcher) AddListing(address string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[address] = data
}

// Fail makes every fetch of key, a package ID or an address, fail with err.
func (f *Fetcher) Fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = err
}

// Fetched returns the package IDs downloaded so far.
func (f *Fetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// FetchListing returns the listing registered for address.
func (f *Fetcher) FetchListing(ctx context.Context, address string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[address]; err != nil {
		return nil, err
	}
	data, ok := f.listings[address]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, "no listing"), "address", address)
	}
	return data, nil
}

// FetchArchive returns the archive registered for pkg.
func (f *Fetcher) FetchArchive(ctx context.Context, _ string, pkg *domain.Package) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[pkg.ID()]; err != nil {
		return nil, err
	}
	data, ok := f.archives[pkg.ID()]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrFetchFailed, "no archive"), "package", pkg.ID())
	}
	f.fetched = append(f.fetched, pkg.ID())
	return data, nil
}
