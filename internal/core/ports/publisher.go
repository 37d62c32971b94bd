package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Publisher uploads built artifacts.
//
//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks
type Publisher interface {
	// Publish uploads the artifact at path with the configured backend.
	Publish(ctx context.Context, path string, cfg domain.PublishSettings) error
	// Instructions tells the user how to upload path manually.
	Instructions(path string, cfg domain.PublishSettings) string
}
