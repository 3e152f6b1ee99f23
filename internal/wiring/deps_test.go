package wiring_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gany/internal/adapters/config"
	"go.trai.ch/gany/internal/app"
	_ "go.trai.ch/gany/internal/wiring"
)

// TestWiring_ResolvesComponents builds the whole node graph against an empty system.
// graft.AssertDepsValid cannot be used: it infers dependency IDs from the package of the
// type passed to Dep, and most nodes here share the ports package.
func TestWiring_ResolvesComponents(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvRoot, filepath.Join(dir, "root"))
	t.Setenv(config.EnvStateDir, filepath.Join(dir, "state"))

	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
	require.NotNil(t, components.Telemetry)
	t.Cleanup(func() { _ = components.Telemetry.Close() })

	installed, err := components.App.List()
	require.NoError(t, err)
	assert.Empty(t, installed)

	repos, err := components.App.ListRepositories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, repos)
}
