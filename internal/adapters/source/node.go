package source

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the source stager Graft node.
const NodeID graft.ID = "adapter.source"

func init() {
	graft.Register(graft.Node[ports.SourceStager]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceStager, error) {
			return NewStager(), nil
		},
	})
}
