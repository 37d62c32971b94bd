package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/builder"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/adapters/publish"
	"go.trai.ch/kiln/internal/adapters/source"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the action pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[ports.ActionPipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			builder.NodeID,
			source.NodeID,
			cas.NodeID,
			publish.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.ActionPipeline, error) {
			engine, err := graft.Dep[ports.BuildEngine](ctx)
			if err != nil {
				return nil, err
			}
			stager, err := graft.Dep[ports.SourceStager](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.BuildRecordStore](ctx)
			if err != nil {
				return nil, err
			}
			publisher, err := graft.Dep[ports.Publisher](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewPipeline(engine, stager, store, publisher, log), nil
		},
	})
}
