package domain

import "time"

// Compression names a supported archive compression.
type Compression string

const (
	// LZ4 is the lz4 frame format, the default.
	LZ4 Compression = "lz4"
	// Zstd is the zstandard format.
	Zstd Compression = "zstd"
)

// DefaultFetchTimeout bounds a single listing or archive download.
const DefaultFetchTimeout = 60 * time.Second

// Config is the runtime configuration of the package manager.
type Config struct {
	// Root is the directory package files are installed under.
	Root string `yaml:"root" validate:"required"`

	// StateDir holds the installed database, repository caches and staging areas.
	// It must be on the same filesystem as Root for commits to be atomic renames.
	StateDir string `yaml:"state_dir" validate:"required"`

	// Arch is the system architecture packages are filtered by.
	Arch string `yaml:"arch" validate:"required"`

	Compression  Compression   `yaml:"compression" validate:"oneof=lz4 zstd"`
	Digest       Algorithm     `yaml:"digest" validate:"oneof=sha3-256 blake3"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig(arch string) Config {
	return Config{
		Root:         DefaultRoot,
		StateDir:     DefaultStateDir,
		Arch:         arch,
		Compression:  LZ4,
		Digest:       SHA3,
		FetchTimeout: DefaultFetchTimeout,
	}
}
