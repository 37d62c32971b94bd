package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading kiln settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds kiln.yaml starting at cwd and returns the settings with
	// defaults applied. A missing file is not an error.
	Load(cwd string) (*domain.Settings, error)
}
