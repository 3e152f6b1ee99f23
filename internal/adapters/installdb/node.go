package installdb

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/adapters/config"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
)

const (
	NodeID        graft.ID = "adapter.installed_store"
	JournalNodeID graft.ID = "adapter.journal"
)

func init() {
	graft.Register(graft.Node[ports.InstalledStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.InstalledStore, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(domain.InstalledPath(cfg.StateDir))
		},
	})

	graft.Register(graft.Node[ports.Journal]{
		ID:        JournalNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.Journal, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewJournal(domain.JournalPath(cfg.StateDir)), nil
		},
	})
}
