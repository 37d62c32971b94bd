// Package cas stores build records keyed by the hash of their package id.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildRecordStore = (*Store)(nil)

// Store implements ports.BuildRecordStore using a file-per-package strategy.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the record of packageID.
func (s *Store) Get(croot, packageID string) (*domain.BuildRecord, error) {
	filename := s.filename(croot, packageID)
	//nolint:gosec // Path is constructed from the build root and a hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreReadFailed, err), "package", packageID)
	}

	var rec domain.BuildRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreUnmarshalFailed, err), "package", packageID)
	}
	return &rec, nil
}

// Put stores rec, replacing an earlier record of the same package.
func (s *Store) Put(croot string, rec domain.BuildRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreMarshalFailed, err)
	}

	filename := s.filename(croot, rec.PackageID)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreCreateFailed, err), "path", filepath.Dir(filename))
	}

	// Write then rename so a concurrent reader never sees a partial record.
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err), "path", filename)
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err), "path", filename)
	}
	return nil
}

// List returns every stored record ordered by package id.
func (s *Store) List(croot string) ([]domain.BuildRecord, error) {
	dir := domain.StorePath(croot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreReadFailed, err), "path", dir)
	}

	var records []domain.BuildRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		//nolint:gosec // Path is a direct child of the store directory
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreReadFailed, err), "file", entry.Name())
		}
		var rec domain.BuildRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrStoreUnmarshalFailed, err), "file", entry.Name())
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b domain.BuildRecord) int {
		return strings.Compare(a.PackageID, b.PackageID)
	})
	return records, nil
}

func (s *Store) filename(croot, packageID string) string {
	hash := sha256.Sum256([]byte(packageID))
	return filepath.Join(domain.StorePath(croot), hex.EncodeToString(hash[:])+".json")
}
