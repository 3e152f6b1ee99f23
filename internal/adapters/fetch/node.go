package fetch

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/config"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
)

const (
	NodeID          graft.ID = "adapter.fetcher"
	PublisherNodeID graft.ID = "adapter.publisher"
	clientNodeID    graft.ID = "adapter.fetch.client"
)

func init() {
	graft.Register(graft.Node[*Client]{
		ID:        clientNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (*Client, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewClient(cfg.FetchTimeout), nil
		},
	})

	graft.Register(graft.Node[ports.Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{clientNodeID},
		Run: func(ctx context.Context) (ports.Fetcher, error) {
			return graft.Dep[*Client](ctx)
		},
	})

	graft.Register(graft.Node[ports.Publisher]{
		ID:        PublisherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{clientNodeID},
		Run: func(ctx context.Context) (ports.Publisher, error) {
			return graft.Dep[*Client](ctx)
		},
	})
}
