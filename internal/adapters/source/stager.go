// Package source stages a recipe's upstream source tree into the work directory.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/archive"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceStager = (*Stager)(nil)

// Stager implements ports.SourceStager for local paths and HTTP downloads.
type Stager struct {
	Client *http.Client
}

// NewStager creates a Stager with a default HTTP client.
func NewStager() *Stager {
	return &Stager{}
}

func (s *Stager) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

// Stage empties workDir and fills it from src. Downloads are cached next to
// workDir and reused while their checksum still matches.
func (s *Stager) Stage(ctx context.Context, recipeDir string, src domain.SourceSection, workDir string) (string, error) {
	if err := os.RemoveAll(workDir); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSourceFetchFailed, err)
	}
	if err := os.MkdirAll(workDir, domain.DirPerm); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSourceFetchFailed, err)
	}

	switch {
	case src.Path != "":
		dir := src.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(recipeDir, dir)
		}
		if err := os.CopyFS(workDir, os.DirFS(dir)); err != nil {
			return "", zerr.With(fmt.Errorf("%w: %w", domain.ErrSourceFetchFailed, err), "path", dir)
		}
		return workDir, nil

	case src.URL != "":
		file, err := s.download(ctx, src, domain.SourceCachePath(filepath.Dir(workDir)))
		if err != nil {
			return "", zerr.With(fmt.Errorf("%w: %w", domain.ErrSourceFetchFailed, err), "url", src.URL)
		}
		return unpack(file, workDir)

	default:
		return workDir, nil
	}
}

// download fetches src.URL into cacheDir and returns the local file.
func (s *Stager) download(ctx context.Context, src domain.SourceSection, cacheDir string) (string, error) {
	fn := src.Fn
	if fn == "" {
		u, err := url.Parse(src.URL)
		if err != nil {
			return "", err
		}
		fn = path.Base(u.Path)
	}
	if fn == "" || fn == "." || fn == "/" || !filepath.IsLocal(fn) {
		return "", fmt.Errorf("cannot derive a file name from %q", src.URL)
	}

	dest := filepath.Join(cacheDir, fn)
	if _, err := os.Stat(dest); err == nil && src.SHA256 != "" {
		if verify(dest, src.SHA256) == nil {
			return dest, nil
		}
	}

	if err := os.MkdirAll(cacheDir, domain.DirPerm); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(cacheDir, fn+".part-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	_, copyErr := io.Copy(tmp, resp.Body)
	if err := errors.Join(copyErr, tmp.Close()); err != nil {
		return "", err
	}

	if src.SHA256 != "" {
		if err := verify(tmp.Name(), src.SHA256); err != nil {
			return "", err
		}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}

func verify(file, want string) error {
	// #nosec G304 -- file lives in the source cache
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, want) {
		return zerr.With(zerr.With(zerr.New("sha256 mismatch"), "expected", want), "actual", got)
	}
	return nil
}

// unpack extracts archives into workDir and copies plain files. An archive
// with a single top-level directory yields that directory.
func unpack(file, workDir string) (string, error) {
	if archive.HasExtension(file) {
		if err := archive.Extract(file, workDir); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrSourceFetchFailed, err)
		}
		if top, ok := archive.SingleTopDir(workDir); ok {
			return top, nil
		}
		return workDir, nil
	}

	if err := copyFile(file, filepath.Join(workDir, filepath.Base(file))); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSourceFetchFailed, err)
	}
	return workDir, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src lives in the source cache
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	return errors.Join(copyErr, out.Close())
}
