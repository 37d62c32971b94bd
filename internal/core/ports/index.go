package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// BuildIndex computes the set of packages available to a build.
//
//go:generate mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks
type BuildIndex interface {
	// Snapshot lists the packages in the build root and in channels.
	// With override set, only the given channels are consulted.
	Snapshot(ctx context.Context, workspace string, channels []string, override bool) (*domain.PackageIndex, error)
}
