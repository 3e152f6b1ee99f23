package ports

import (
	"context"

	"go.trai.ch/gany/internal/core/domain"
)

//go:generate mockgen -source=codec.go -destination=mocks/mock_codec.go -package=mocks

// Compressor is a pure compression primitive.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	// Decompress fails with domain.ErrCorruptArchive on malformed input.
	Decompress(data []byte) ([]byte, error)
}

// Digester is a pure hashing primitive.
type Digester interface {
	Algorithm() domain.Algorithm
	Digest(data []byte) domain.Digest
	// Verify recomputes the digest of data with the algorithm of expected and compares
	// it in constant time. A mismatch fails with domain.ErrIntegrity.
	Verify(data []byte, expected domain.Digest) error
}

// BuiltPackage is the output of packing a source tree.
type BuiltPackage struct {
	// Manifest carries the digest of Archive.
	Manifest domain.Package
	Archive  []byte
}

// ArchiveCodec packs source trees into verified archives and back.
type ArchiveCodec interface {
	// CreatePackage archives <sourceDir>/src described by <sourceDir>/manifest.yaml.
	CreatePackage(ctx context.Context, sourceDir string) (*BuiltPackage, error)

	// ExtractPackage verifies archive against expected before decompressing it into stagingDir.
	ExtractPackage(ctx context.Context, archive []byte, expected domain.Digest, stagingDir string) (*domain.FileSet, error)

	// EncodeManifest and DecodeManifest handle the binary manifest shipped next to archives.
	EncodeManifest(pkg *domain.Package) ([]byte, error)
	DecodeManifest(data []byte) (*domain.Package, error)
}
