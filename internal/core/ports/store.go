package ports

import "go.trai.ch/kiln/internal/core/domain"

// BuildRecordStore defines the interface for storing and retrieving build records.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the record of packageID.
	// Returns nil, nil if not found.
	Get(croot, packageID string) (*domain.BuildRecord, error)

	// Put stores the record.
	Put(croot string, rec domain.BuildRecord) error

	// List returns every stored record.
	List(croot string) ([]domain.BuildRecord, error)
}
