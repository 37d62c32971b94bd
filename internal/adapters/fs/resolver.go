// Package fs resolves recipe locations on the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/archive"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RecipeResolver = (*Resolver)(nil)

// Resolver implements ports.RecipeResolver for directories and tarballs.
type Resolver struct {
	Manifests ports.ManifestLoader
	// TempDir is where archives are extracted; empty means os.TempDir.
	TempDir string
}

// NewResolver creates a new Resolver.
func NewResolver(manifests ports.ManifestLoader) *Resolver {
	return &Resolver{Manifests: manifests}
}

// Resolve materializes location and loads its manifest for variant.
func (r *Resolver) Resolve(_ context.Context, location string, variant domain.Variant) (*domain.ResolvedRecipe, error) {
	info, err := os.Stat(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.Wrap(domain.ErrRecipeDirNotFound, fmt.Sprintf("no such directory: %s", location))
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot stat recipe"), "path", location)
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot resolve recipe path"), "path", location)
	}

	recipe := &domain.ResolvedRecipe{Dir: abs}
	switch {
	case info.IsDir():
	case archive.HasExtension(location):
		if err := r.extract(recipe, abs); err != nil {
			return nil, err
		}
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrNotARecipe, "not a directory or recipe tarball"), "path", location)
	}

	m, err := r.Manifests.Load(recipe.Dir, variant)
	if err != nil {
		if cerr := recipe.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	recipe.Manifest = m
	recipe.Dist = m.Dist(variant)
	recipe.PackageID = m.PackageID(variant)
	return recipe, nil
}

func (r *Resolver) extract(recipe *domain.ResolvedRecipe, location string) error {
	tmp, err := os.MkdirTemp(r.TempDir, "kiln-recipe-")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrArchiveExtractFailed, err.Error()), "path", location)
	}
	recipe.Temporary = true
	recipe.Cleanup = func() error { return os.RemoveAll(tmp) }

	if err := archive.Extract(location, tmp); err != nil {
		_ = recipe.Close()
		return zerr.With(zerr.Wrap(domain.ErrArchiveExtractFailed, err.Error()), "path", location)
	}

	recipe.Dir = tmp
	if _, err := os.Stat(filepath.Join(tmp, domain.ManifestFileName)); err != nil {
		if top, ok := archive.SingleTopDir(tmp); ok {
			recipe.Dir = top
		}
	}
	return nil
}
