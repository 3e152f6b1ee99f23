package syncer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/archive"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/fetch"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/repostore"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gany/internal/core/ports"
)

// NodeID is the unique identifier for the syncer Graft node.
const NodeID graft.ID = "engine.syncer"

func init() {
	graft.Register(graft.Node[*Syncer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			repostore.NodeID,
			fetch.NodeID,
			fetch.PublisherNodeID,
			archive.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Syncer, error) {
			store, err := graft.Dep[ports.RepositoryStore](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			publisher, err := graft.Dep[ports.Publisher](ctx)
			if err != nil {
				return nil, err
			}
			codec, err := graft.Dep[ports.ArchiveCodec](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return New(store, fetcher, publisher, codec, telemetry), nil
		},
	})
}
