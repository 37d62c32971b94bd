package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ActionPipeline runs the requested action on one resolved recipe.
//
//go:generate mockgen -source=pipeline.go -destination=mocks/mock_pipeline.go -package=mocks
type ActionPipeline interface {
	// Execute runs the action selected by req.Mode(). Output written for the
	// user goes to the span's writer.
	Execute(ctx context.Context, recipe *domain.ResolvedRecipe, req *domain.BuildRequest, opts domain.BuildOptions, span Span) error
}
