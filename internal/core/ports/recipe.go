package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=recipe.go -destination=mocks/mock_recipe.go -package=mocks

// RecipeResolver materializes a recipe location.
type RecipeResolver interface {
	// Resolve turns a directory or archive into a ResolvedRecipe whose
	// package id is computed for variant. It returns domain.ErrNotARecipe for
	// files that are not recipes.
	Resolve(ctx context.Context, location string, variant domain.Variant) (*domain.ResolvedRecipe, error)
}

// RecipeFinder discovers candidate recipes for a missing dependency.
type RecipeFinder interface {
	// Find returns the entries under root named <name>-v?[0-9][0-9.]*,
	// followed by root/<name> if it exists, in discovery order.
	Find(root, name string) ([]string, error)
}

// ManifestLoader parses and validates recipe metadata.
type ManifestLoader interface {
	// Load parses dir/meta.yaml. Lines carrying a "# [selector]" comment are
	// kept only when the selector holds for variant on this platform.
	Load(dir string, variant domain.Variant) (*domain.Manifest, error)
	// Validate checks the manifest's fields.
	Validate(m *domain.Manifest) error
}
