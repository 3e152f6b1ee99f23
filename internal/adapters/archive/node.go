package archive

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/compress"
	"go.trai.ch/gany/internal/adapters/config"
	"go.trai.ch/gany/internal/adapters/digest"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
)

// NodeID is the unique identifier for the archive codec Graft node.
const NodeID graft.ID = "adapter.archive"

func init() {
	graft.Register(graft.Node[ports.ArchiveCodec]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ArchiveCodec, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			c, err := compress.New(cfg.Compression)
			if err != nil {
				return nil, err
			}
			d, err := digest.New(cfg.Digest)
			if err != nil {
				return nil, err
			}
			return New(c, d), nil
		},
	})
}
