package domain

import (
	"slices"
	"strings"
	"time"
)

// ArtifactExt is the file extension of built packages.
const ArtifactExt = ".tar.bz2"

// PackageRecord describes one available package.
type PackageRecord struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Build       string `json:"build"`
	BuildNumber int    `json:"build_number"`
	Subdir      string `json:"subdir,omitempty"`
	Channel     string `json:"-"`
}

// ParsePackageID splits "name-version-build.tar.bz2" into a record.
// Package names may contain dashes; version and build may not.
func ParsePackageID(id string) (PackageRecord, bool) {
	dist := strings.TrimSuffix(id, ArtifactExt)
	i := strings.LastIndexByte(dist, '-')
	if i <= 0 {
		return PackageRecord{}, false
	}
	j := strings.LastIndexByte(dist[:i], '-')
	if j <= 0 {
		return PackageRecord{}, false
	}
	return PackageRecord{
		Name:    dist[:j],
		Version: dist[j+1 : i],
		Build:   dist[i+1:],
	}, true
}

// PackageIndex is the build-index snapshot: package ids mapped to records.
// It is built once and only read afterwards.
type PackageIndex struct {
	records map[string]PackageRecord
}

// NewPackageIndex returns an empty index.
func NewPackageIndex() *PackageIndex {
	return &PackageIndex{records: make(map[string]PackageRecord)}
}

// Add records id. Later additions of the same id win.
func (i *PackageIndex) Add(id string, rec PackageRecord) {
	i.records[id] = rec
}

// Has reports whether id is in the index. A nil index is empty.
func (i *PackageIndex) Has(id string) bool {
	if i == nil {
		return false
	}
	_, ok := i.records[id]
	return ok
}

// Find returns a record satisfying spec, preferring the highest version.
func (i *PackageIndex) Find(spec MatchSpec) (PackageRecord, bool) {
	if i == nil {
		return PackageRecord{}, false
	}
	var best PackageRecord
	found := false
	for _, rec := range i.records {
		if !spec.Matches(rec) {
			continue
		}
		if !found || CompareVersions(rec.Version, best.Version) > 0 {
			best = rec
			found = true
		}
	}
	return best, found
}

// Len returns the number of ids.
func (i *PackageIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.records)
}

// IDs returns the sorted package ids.
func (i *PackageIndex) IDs() []string {
	if i == nil {
		return nil
	}
	ids := make([]string, 0, len(i.records))
	for id := range i.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// PackageSet is the set of package ids completed in the current run.
// It only grows.
type PackageSet struct {
	ids   map[string]struct{}
	order []string
}

// NewPackageSet returns an empty set.
func NewPackageSet() *PackageSet {
	return &PackageSet{ids: make(map[string]struct{})}
}

// Add inserts id.
func (s *PackageSet) Add(id string) {
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

// Has reports whether id was added.
func (s *PackageSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// List returns the ids in insertion order.
func (s *PackageSet) List() []string {
	return slices.Clone(s.order)
}

// Artifact is the package produced by a build.
type Artifact struct {
	PackageID string
	Path      string
	Files     int
}

// BuildRecord is the persisted record of a completed build.
type BuildRecord struct {
	PackageID    string        `json:"package_id"`
	Dist         string        `json:"dist"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Build        string        `json:"build"`
	Subdir       string        `json:"subdir"`
	Variant      string        `json:"variant"`
	ArtifactPath string        `json:"artifact_path"`
	BuiltAt      time.Time     `json:"built_at"`
	Duration     time.Duration `json:"duration"`
}
