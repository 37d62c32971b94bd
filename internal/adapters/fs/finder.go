package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RecipeFinder = (*Finder)(nil)

// Finder implements ports.RecipeFinder by listing the search root.
type Finder struct{}

// NewFinder creates a new Finder.
func NewFinder() *Finder {
	return &Finder{}
}

// Find returns root/<name>-<version> directories in name order, then
// root/<name> when it exists as a directory or a file. A file candidate
// goes to the resolver like any other location, which ignores it unless it
// is a recipe tarball. A missing root has no candidates.
func (f *Finder) Find(root, name string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cannot list search root"), "path", root)
	}

	versioned := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `-v?[0-9][0-9.]*$`)

	var candidates []string
	for _, e := range entries {
		if versioned.MatchString(e.Name()) && isDir(filepath.Join(root, e.Name())) {
			candidates = append(candidates, filepath.Join(root, e.Name()))
		}
	}
	if exact := filepath.Join(root, name); name != "" && exists(exact) {
		candidates = append(candidates, exact)
	}
	return candidates, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
