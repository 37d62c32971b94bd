package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks

// BuildEngine turns recipes into package artifacts.
type BuildEngine interface {
	// Build builds the recipe. A missing requirement is reported as a
	// *domain.DependencyUnsatisfiedError.
	Build(ctx context.Context, recipe *domain.ResolvedRecipe, opts domain.BuildOptions, out io.Writer) (*domain.Artifact, error)
	// Test runs the recipe's tests against its built artifact.
	Test(ctx context.Context, recipe *domain.ResolvedRecipe, opts domain.BuildOptions, out io.Writer) error
	// ArtifactPath is where Build writes the recipe's artifact.
	ArtifactPath(recipe *domain.ResolvedRecipe, opts domain.BuildOptions) string
}

// SourceStager fetches a recipe's source tree.
type SourceStager interface {
	// Stage places the source described by src into workDir and returns the
	// source directory.
	Stage(ctx context.Context, recipeDir string, src domain.SourceSection, workDir string) (string, error)
}

// Executor runs commands.
type Executor interface {
	// Execute runs cmd, streaming its output to stdout and stderr.
	Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error
}
