// Package config loads the runtime configuration of gany.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/gany/internal/adapters/schema"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by the loader.
const (
	EnvConfig   = "GANY_CONFIG"
	EnvRoot     = "GANY_ROOT"
	EnvStateDir = "GANY_STATE_DIR"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	log ports.Logger
}

// NewLoader creates a FileConfigLoader.
func NewLoader(log ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{log: log}
}

// Load reads the configuration file at path, falling back to defaults when it does not exist.
// GANY_ROOT and GANY_STATE_DIR override the file.
func (l *FileConfigLoader) Load(path string) (*domain.Config, error) {
	cfg := domain.DefaultConfig(HostArch())

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.log.Debug("no configuration at " + path + ", using defaults")
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	default:
		if err := decode(data, &cfg); err != nil {
			return nil, zerr.With(err, "path", path)
		}
	}

	if root := os.Getenv(EnvRoot); root != "" {
		cfg.Root = root
	}
	if stateDir := os.Getenv(EnvStateDir); stateDir != "" {
		cfg.StateDir = stateDir
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = domain.DefaultFetchTimeout
	}
	cfg.Root = filepath.Clean(cfg.Root)
	cfg.StateDir = filepath.Clean(cfg.StateDir)

	if err := schema.Validate(cfg, domain.ErrInvalidConfig); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, cfg *domain.Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(domain.ErrInvalidConfig, err.Error())
	}
	return nil
}

// Path returns the configuration file to load: $GANY_CONFIG, or the system-wide default.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return domain.DefaultConfigPath
}

// HostArch returns the architecture name packages are published under for this machine.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}
