// Package index builds the snapshot of packages available to a build.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildIndex = (*Index)(nil)

// LocalChannel is the channel name given to packages found in the build root.
const LocalChannel = "local"

// repodata is the subset of a channel's repodata.json kiln reads.
type repodata struct {
	Packages map[string]domain.PackageRecord `json:"packages"`
}

// Index implements ports.BuildIndex over the build root, the build record
// store and remote channels. Channel indexes are fetched once per process.
type Index struct {
	Store  ports.BuildRecordStore
	Logger ports.Logger
	Client *http.Client
	Subdir string

	mu      sync.Mutex
	fetched map[string]map[string]domain.PackageRecord
}

// NewIndex creates an Index for the host platform.
func NewIndex(store ports.BuildRecordStore, logger ports.Logger) *Index {
	return &Index{
		Store:   store,
		Logger:  logger,
		Subdir:  domain.Subdir(),
		fetched: make(map[string]map[string]domain.PackageRecord),
	}
}

func (x *Index) client() *http.Client {
	if x.Client != nil {
		return x.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (x *Index) subdirs() []string {
	return []string{x.Subdir, domain.NoarchSubdir}
}

// Snapshot lists the artifacts in the build root and the packages of every
// channel. A channel that cannot be fetched falls back to its cached index;
// without one it is skipped with a warning, unless override is set, in which
// case the given channels are the only source and the failure is returned.
func (x *Index) Snapshot(ctx context.Context, workspace string, channels []string, override bool) (*domain.PackageIndex, error) {
	idx := domain.NewPackageIndex()

	for _, subdir := range x.subdirs() {
		if err := scanLocal(idx, domain.ArtifactDir(workspace, subdir), subdir); err != nil {
			return nil, err
		}
	}

	records, err := x.Store.List(workspace)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if _, err := os.Stat(rec.ArtifactPath); err != nil {
			continue
		}
		idx.Add(rec.PackageID, domain.PackageRecord{
			Name:    rec.Name,
			Version: rec.Version,
			Build:   rec.Build,
			Subdir:  rec.Subdir,
			Channel: LocalChannel,
		})
	}

	for _, channel := range channels {
		for _, subdir := range x.subdirs() {
			packages, err := x.channel(ctx, workspace, channel, subdir)
			if err != nil {
				if override {
					return nil, err
				}
				x.Logger.Warn(fmt.Sprintf("Skipping channel %s/%s: %v", channel, subdir, err))
				continue
			}
			for id, rec := range packages {
				rec.Channel = channel
				if rec.Subdir == "" {
					rec.Subdir = subdir
				}
				idx.Add(id, rec)
			}
		}
	}

	return idx, nil
}

// scanLocal adds every artifact of dir.
func scanLocal(idx *domain.PackageIndex, dir, subdir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to scan build root"), "path", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), domain.ArtifactExt) {
			continue
		}
		rec, ok := domain.ParsePackageID(entry.Name())
		if !ok {
			continue
		}
		rec.Subdir = subdir
		rec.Channel = LocalChannel
		idx.Add(entry.Name(), rec)
	}
	return nil
}

func (x *Index) channel(ctx context.Context, workspace, channel, subdir string) (map[string]domain.PackageRecord, error) {
	location := repodataLocation(channel, subdir)

	x.mu.Lock()
	defer x.mu.Unlock()

	if packages, ok := x.fetched[location]; ok {
		return packages, nil
	}
	if x.fetched == nil {
		x.fetched = make(map[string]map[string]domain.PackageRecord)
	}

	var (
		data []byte
		err  error
	)
	if isRemote(location) {
		data, err = x.fetchRemote(ctx, workspace, location)
	} else {
		data, err = readLocal(location)
	}
	if err != nil {
		return nil, err
	}

	var rd repodata
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rd); err != nil {
			return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrChannelFetchFailed, err), "url", location)
		}
	}
	if rd.Packages == nil {
		rd.Packages = make(map[string]domain.PackageRecord)
	}
	x.fetched[location] = rd.Packages
	return rd.Packages, nil
}

// fetchRemote downloads location and refreshes its cache entry. When the
// download fails the cached copy is used instead.
func (x *Index) fetchRemote(ctx context.Context, workspace, location string) ([]byte, error) {
	cacheFile := filepath.Join(domain.CachePath(workspace), fmt.Sprintf("%016x.json", xxhash.Sum64String(location)))

	data, err := x.download(ctx, location)
	if err == nil {
		if mkErr := os.MkdirAll(filepath.Dir(cacheFile), domain.DirPerm); mkErr == nil {
			_ = os.WriteFile(cacheFile, data, domain.FilePerm)
		}
		return data, nil
	}

	//nolint:gosec // Path is inside the build root cache
	cached, readErr := os.ReadFile(cacheFile)
	if readErr != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrChannelFetchFailed, err), "url", location)
	}
	x.Logger.Warn(fmt.Sprintf("Using cached index for %s", location))
	return cached, nil
}

func (x *Index) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := x.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		// Channels without packages for a subdir do not publish its index.
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func readLocal(location string) ([]byte, error) {
	//nolint:gosec // Channel directories are named by the user
	data, err := os.ReadFile(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrChannelFetchFailed, err), "path", location)
	}
	return data, nil
}

// repodataLocation is the URL or file path of a channel's index for subdir.
func repodataLocation(channel, subdir string) string {
	if u, err := url.Parse(channel); err == nil && u.Scheme == "file" {
		return filepath.Join(filepath.FromSlash(u.Path), subdir, domain.RepodataFileName)
	}
	if isRemote(channel) {
		return strings.TrimRight(channel, "/") + "/" + subdir + "/" + domain.RepodataFileName
	}
	return filepath.Join(channel, subdir, domain.RepodataFileName)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
