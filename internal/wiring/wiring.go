// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/gany/internal/adapters/archive"
	_ "go.trai.ch/gany/internal/adapters/config"
	_ "go.trai.ch/gany/internal/adapters/fetch"
	_ "go.trai.ch/gany/internal/adapters/fs"
	_ "go.trai.ch/gany/internal/adapters/installdb"
	_ "go.trai.ch/gany/internal/adapters/lock"
	_ "go.trai.ch/gany/internal/adapters/logger"
	_ "go.trai.ch/gany/internal/adapters/repostore"
	_ "go.trai.ch/gany/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/gany/internal/app"
	_ "go.trai.ch/gany/internal/engine/resolver"
	_ "go.trai.ch/gany/internal/engine/syncer"
	_ "go.trai.ch/gany/internal/engine/transaction"
)
