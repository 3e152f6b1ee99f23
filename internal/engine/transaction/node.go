package transaction

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/fetch"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/fs"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/installdb"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/gany/internal/engine/resolver"
)

// NodeID is the unique identifier for the transaction engine Graft node.
const NodeID graft.ID = "engine.transaction"

func init() {
	graft.Register(graft.Node[*Engine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			resolver.NodeID,
			fs.MaterializerNodeID,
			fetch.NodeID,
			installdb.NodeID,
			installdb.JournalNodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Engine, error) {
			res, err := graft.Dep[ports.Resolver](ctx)
			if err != nil {
				return nil, err
			}
			materializer, err := graft.Dep[ports.Materializer](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.InstalledStore](ctx)
			if err != nil {
				return nil, err
			}
			journal, err := graft.Dep[ports.Journal](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(res, materializer, fetcher, store, journal, telemetry, log), nil
		},
	})
}
