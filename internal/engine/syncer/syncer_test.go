package syncer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/fetch"
	"go.trai.ch/gany/internal/adapters/repostore"
	"go.trai.ch/gany/internal/adapters/telemetry"
	"go.trai.ch/gany/internal/adapters/wire"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/gany/internal/core/ports/mocks"
	"go.trai.ch/gany/internal/engine/syncer"
	"go.trai.ch/gany/internal/pkgtest"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func encode(t *testing.T, name string, pkgs ...domain.Package) []byte {
	t.Helper()
	data, err := wire.EncodeListing(&domain.Listing{Name: name, Packages: pkgs})
	require.NoError(t, err)
	return data
}

func pkg(name, version string) domain.Package {
	return domain.Package{Name: name, Version: version, Arch: domain.ArchAny}
}

func packages(t *testing.T, store *repostore.Store) map[string][]string {
	t.Helper()
	repos, err := store.LoadRepositories(context.Background())
	require.NoError(t, err)
	out := make(map[string][]string)
	for i := range repos {
		listing := repos[i].Listing()
		ids := []string{}
		for _, p := range listing.Packages {
			ids = append(ids, p.ID())
		}
		out[repos[i].Name] = ids
	}
	return out
}

func TestSyncer_RefreshIsPerRepository(t *testing.T) {
	ctx := context.Background()
	store := repostore.NewStore(t.TempDir())
	r1 := domain.RepositoryDescriptor{Name: "r1", Address: "/srv/r1"}
	r2 := domain.RepositoryDescriptor{Name: "r2", Address: "/srv/r2"}
	r3 := domain.RepositoryDescriptor{Name: "r3", Address: "/srv/r3"}
	for _, d := range []domain.RepositoryDescriptor{r1, r2, r3} {
		_, err := store.AddRepository(ctx, d)
		require.NoError(t, err)
	}
	_, err := store.SyncRepositories(ctx, []domain.Snapshot{
		{Repository: r1, Listing: domain.Listing{Packages: []domain.Package{pkg("a", "1.0.0")}}},
		{Repository: r2, Listing: domain.Listing{Packages: []domain.Package{pkg("b", "1.0.0")}}},
		{Repository: r3, Listing: domain.Listing{Packages: []domain.Package{pkg("c", "1.0.0")}}},
	})
	require.NoError(t, err)

	fetcher := pkgtest.NewFetcher()
	fetcher.AddListing("/srv/r1", encode(t, "r1", pkg("a", "1.0.0"), pkg("a", "2.0.0")))
	fetcher.Fail("/srv/r2", zerr.Wrap(domain.ErrFetchFailed, "connection reset"))
	fetcher.AddListing("/srv/r3", []byte("\xff not a listing"))

	s := syncer.New(store, fetcher, nil, pkgtest.Codec(t), telemetry.NoOp{})
	report, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, report.Updated)
	assert.Equal(t, []string{"r2", "r3"}, report.FailedNames())
	require.ErrorIs(t, report.Failed["r2"], domain.ErrFetchFailed)
	require.ErrorIs(t, report.Failed["r3"], domain.ErrStoreCorruption)

	assert.Equal(t, map[string][]string{
		"r1": {"a@1.0.0", "a@2.0.0"},
		"r2": {"b@1.0.0"},
		"r3": {"c@1.0.0"},
	}, packages(t, store))
}

func TestSyncer_PushAndPull(t *testing.T) {
	ctx := context.Background()
	store := repostore.NewStore(t.TempDir())
	address := t.TempDir()
	_, err := store.AddRepository(ctx, domain.RepositoryDescriptor{Name: "local", Address: address})
	require.NoError(t, err)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, domain.ManifestFileName), []byte("name: tool\nversion: 1.0.0\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(src, domain.SourceDirName, "usr", "bin"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, domain.SourceDirName, "usr", "bin", "tool"), []byte("tool"), 0o755))

	client := fetch.NewClient(time.Second)
	s := syncer.New(store, client, client, pkgtest.Codec(t), telemetry.NoOp{})

	out := t.TempDir()
	built, err := s.Build(ctx, src, out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "tool-1.0.0.gany"))
	assert.FileExists(t, filepath.Join(out, "tool-1.0.0.ganyinf"))

	pushed, err := s.Push(ctx, "local", []string{out})
	require.NoError(t, err)
	require.Len(t, pushed, 1)
	assert.Equal(t, built.Digest, pushed[0].Digest)
	assert.FileExists(t, filepath.Join(address, domain.IndexFileName))
	assert.FileExists(t, filepath.Join(address, "tool-1.0.0.gany"))
	assert.Equal(t, map[string][]string{"local": {"tool@1.0.0"}}, packages(t, store))

	archive, err := client.FetchArchive(ctx, address, &pushed[0])
	require.NoError(t, err)
	_, err = pkgtest.Codec(t).ExtractPackage(ctx, archive, pushed[0].Digest, filepath.Join(t.TempDir(), "stage"))
	require.NoError(t, err, "a pushed archive verifies against its listed digest")

	report, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, report.Updated)
	assert.Equal(t, map[string][]string{"local": {"tool@1.0.0"}}, packages(t, store))
}

func TestSyncer_PushReplacesSameVersion(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRepositoryStore(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)

	desc := domain.RepositoryDescriptor{Name: "main", Address: "https://pkgs.example.com/main"}
	stale := pkg("tool", "1.0.0")
	stale.Description = "old build"
	repo := domain.NewRepository(desc, domain.Listing{Packages: []domain.Package{stale, pkg("other", "2.0.0")}}, time.Time{})
	store.EXPECT().LoadRepositories(ctx).Return([]domain.Repository{repo}, nil)

	built := pkgtest.Build(t, domain.Package{Name: "tool", Version: "1.0.0", Description: "new build"}, map[string]string{"bin/tool": "x"})
	info, err := pkgtest.Codec(t).EncodeManifest(&built.Manifest)
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool-1.0.0.ganyinf"), info, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool-1.0.0.gany"), built.Archive, 0o644))

	publisher.EXPECT().Publish(gomock.Any(), desc.Address, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, pub ports.Publication) error {
			assert.Contains(t, pub.Files, "tool-1.0.0.gany")
			listing, err := wire.DecodeListing(pub.Listing)
			require.NoError(t, err)
			require.Len(t, listing.Packages, 2)
			for _, p := range listing.Packages {
				if p.Name == "tool" {
					assert.Equal(t, "new build", p.Description)
				}
			}
			return nil
		})
	store.EXPECT().SyncRepositories(gomock.Any(), gomock.Len(1)).Return(domain.SyncReport{Updated: []string{"main"}}, nil)

	s := syncer.New(store, nil, publisher, pkgtest.Codec(t), telemetry.NoOp{})
	pushed, err := s.Push(ctx, "main", []string{filepath.Join(dir, "tool-1.0.0.ganyinf")})
	require.NoError(t, err)
	assert.Len(t, pushed, 1)
}

func TestSyncer_PushUnknownRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRepositoryStore(ctrl)
	store.EXPECT().LoadRepositories(gomock.Any()).Return(nil, nil)

	s := syncer.New(store, nil, nil, pkgtest.Codec(t), telemetry.NoOp{})
	_, err := s.Push(context.Background(), "missing", []string{t.TempDir()})
	require.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}
