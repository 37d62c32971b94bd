package builder

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/index"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/adapters/source"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the build engine Graft node.
const NodeID graft.ID = "adapter.builder"

func init() {
	graft.Register(graft.Node[ports.BuildEngine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, source.NodeID, index.NodeID},
		Run: func(ctx context.Context) (ports.BuildEngine, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			stager, err := graft.Dep[ports.SourceStager](ctx)
			if err != nil {
				return nil, err
			}
			idx, err := graft.Dep[ports.BuildIndex](ctx)
			if err != nil {
				return nil, err
			}
			return NewEngine(executor, stager, idx), nil
		},
	})
}
