package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/adapters/installdb"          //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/adapters/lock"               //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/adapters/repostore"          //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/gany/internal/engine/syncer"
	"go.trai.ch/gany/internal/engine/transaction"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			transaction.NodeID,
			syncer.NodeID,
			repostore.NodeID,
			installdb.NodeID,
			installdb.JournalNodeID,
			fs.VerifierNodeID,
			lock.NodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(app, log, telemetry), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	engine, err := graft.Dep[*transaction.Engine](ctx)
	if err != nil {
		return nil, err
	}
	syn, err := graft.Dep[*syncer.Syncer](ctx)
	if err != nil {
		return nil, err
	}
	repos, err := graft.Dep[ports.RepositoryStore](ctx)
	if err != nil {
		return nil, err
	}
	installed, err := graft.Dep[ports.InstalledStore](ctx)
	if err != nil {
		return nil, err
	}
	journal, err := graft.Dep[ports.Journal](ctx)
	if err != nil {
		return nil, err
	}
	verifier, err := graft.Dep[ports.Verifier](ctx)
	if err != nil {
		return nil, err
	}
	locker, err := graft.Dep[ports.Locker](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	return New(engine, syn, repos, installed, journal, verifier, locker, log, cfg.Arch), nil
}
