package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/manifest"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// ResolverNodeID is the unique identifier for the recipe resolver Graft node.
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	// FinderNodeID is the unique identifier for the recipe finder Graft node.
	FinderNodeID graft.ID = "adapter.fs.finder"
)

func init() {
	graft.Register(graft.Node[ports.RecipeResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{manifest.NodeID},
		Run: func(ctx context.Context) (ports.RecipeResolver, error) {
			manifests, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(manifests), nil
		},
	})

	graft.Register(graft.Node[ports.RecipeFinder]{
		ID:        FinderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RecipeFinder, error) {
			return NewFinder(), nil
		},
	})
}
