package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gany/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[ports.Resolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Resolver, error) {
			return New(), nil
		},
	})
}
