package wire_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/wire"
	"go.trai.ch/gany/internal/core/domain"
)

func testListing() domain.Listing {
	return domain.Listing{
		Name:        "main",
		Description: "main repository",
		Packages: []domain.Package{{
			Name:         "curl",
			Version:      "8.1.0",
			Arch:         "x86_64",
			Dependencies: []domain.Requirement{{Name: "openssl", Constraint: "^3"}},
			Conflicts:    []domain.Requirement{{Name: "curl-minimal"}},
			Files:        []domain.FileEntry{{Path: "usr/bin/curl"}, {Path: "etc/curlrc", Ghost: true}},
			Digest:       domain.Digest("sha3-256:a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"),
		}},
	}
}

func TestListing_CBOR(t *testing.T) {
	l := testListing()
	data, err := wire.EncodeListing(&l)
	require.NoError(t, err)

	again, err := wire.EncodeListing(&l)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding must be deterministic")

	decoded, err := wire.DecodeListing(data)
	require.NoError(t, err)
	assert.Equal(t, l, *decoded)
}

func TestListing_YAML(t *testing.T) {
	data := []byte(`name: main
packages:
  - name: hello
    version: 1.0.0
    arch: any
    files:
      - path: usr/bin/hello
`)
	decoded, err := wire.DecodeListing(data)
	require.NoError(t, err)
	require.Len(t, decoded.Packages, 1)
	assert.Equal(t, "hello", decoded.Packages[0].Name)
}

func TestListing_Invalid(t *testing.T) {
	_, err := wire.DecodeListing([]byte("\x00\x01garbage:::"))
	require.ErrorIs(t, err, domain.ErrStoreCorruption)

	_, err = wire.DecodeListing([]byte("name: main\npackages:\n  - name: NoVersion\n"))
	require.ErrorIs(t, err, domain.ErrStoreCorruption)
}

func TestTimeRoundTrip(t *testing.T) {
	in := domain.Repository{
		RepositoryDescriptor: domain.RepositoryDescriptor{Name: "main", Address: "/srv/main"},
		SyncedAt:             time.Date(2026, 3, 4, 5, 6, 7, 891011, time.UTC),
	}
	data, err := wire.Marshal(in)
	require.NoError(t, err)

	var out domain.Repository
	require.NoError(t, wire.Unmarshal(data, &out))
	assert.True(t, in.SyncedAt.Equal(out.SyncedAt))
	assert.Equal(t, in.RepositoryDescriptor, out.RepositoryDescriptor)
}
