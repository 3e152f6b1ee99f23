package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/archive"
	"go.trai.ch/gany/internal/adapters/config"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
)

const (
	HasherNodeID       graft.ID = "adapter.fs.hasher"
	MaterializerNodeID graft.ID = "adapter.fs.materializer"
	VerifierNodeID     graft.ID = "adapter.fs.verifier"
)

func init() {
	graft.Register(graft.Node[*Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Hasher, error) {
			return NewHasher(), nil
		},
	})

	graft.Register(graft.Node[ports.Materializer]{
		ID:        MaterializerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, archive.NodeID, HasherNodeID},
		Run: func(ctx context.Context) (ports.Materializer, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			codec, err := graft.Dep[ports.ArchiveCodec](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[*Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewMaterializer(cfg.Root, cfg.StateDir, codec, hasher), nil
		},
	})

	graft.Register(graft.Node[ports.Verifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, HasherNodeID},
		Run: func(ctx context.Context) (ports.Verifier, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[*Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewVerifier(cfg.Root, hasher), nil
		},
	})
}
