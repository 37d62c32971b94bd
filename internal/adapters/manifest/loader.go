// Package manifest loads and validates recipe metadata (meta.yaml).
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	nameBadChars    = "=!@#$%^&*:;\"'\\|<>?/ "
	versionBadChars = nameBadChars + "-"
)

// Loader implements ports.ManifestLoader.
type Loader struct {
	Platform Platform
}

// NewLoader creates a Loader for the running platform.
func NewLoader() *Loader {
	return &Loader{Platform: Platform{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}}
}

// Load parses dir/meta.yaml for variant.
func (l *Loader) Load(dir string, variant domain.Variant) (*domain.Manifest, error) {
	path := filepath.Join(dir, domain.ManifestFileName)

	// #nosec G304 -- path is inside a recipe directory chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrManifestNotFound, "cannot load recipe"), "dir", dir)
		}
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrManifestParse, err), "path", path)
	}

	data, err = applySelectors(data, namespace(l.Platform, variant))
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrManifestParse, err), "path", path)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrManifestParse, err), "path", path)
	}

	file, err := decodeSections(data)
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrManifestParse, err), "path", path)
	}

	return toDomain(file, raw), nil
}

// decodeSections decodes the top-level sections that are mappings. Sections
// of any other shape stay empty; Validate reports them.
func decodeSections(data []byte) (*metaFile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var file metaFile
	if len(doc.Content) == 0 {
		return &file, nil
	}

	top := doc.Content[0]
	sections := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(top.Content); i += 2 {
		value := top.Content[i+1]
		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}
		if value.Kind == yaml.MappingNode {
			sections.Content = append(sections.Content, top.Content[i], value)
		}
	}
	if err := sections.Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

func toDomain(f *metaFile, raw map[string]any) *domain.Manifest {
	return &domain.Manifest{
		Package: domain.PackageSection{
			Name:    strings.TrimSpace(f.Package.Name),
			Version: strings.TrimSpace(f.Package.Version),
		},
		Source: domain.SourceSection{
			URL:    f.Source.URL,
			Fn:     f.Source.Fn,
			Path:   f.Source.Path,
			SHA256: strings.ToLower(f.Source.SHA256),
		},
		Build: domain.BuildSection{
			Number:       f.Build.Number,
			String:       f.Build.String,
			Script:       []string(f.Build.Script),
			NoarchPython: f.Build.NoarchPython,
			ScriptEnv:    f.Build.ScriptEnv,
		},
		Requirements: domain.RequirementsSection{
			Build: f.Requirements.Build,
			Run:   f.Requirements.Run,
		},
		Test: domain.TestSection{
			Commands: f.Test.Commands,
			Imports:  f.Test.Imports,
			Requires: f.Test.Requires,
			Files:    f.Test.Files,
		},
		About: f.About,
		Raw:   raw,
	}
}

// Validate rejects unknown sections and keys and malformed package fields.
func (l *Loader) Validate(m *domain.Manifest) error {
	sections := make([]string, 0, len(m.Raw))
	for name := range m.Raw {
		sections = append(sections, name)
	}
	sort.Strings(sections)

	for _, name := range sections {
		allowed, ok := fields[name]
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrManifestInvalidField, "unknown section"), "section", name)
		}
		section, ok := m.Section(name)
		if !ok && m.Raw[name] != nil {
			return zerr.With(zerr.Wrap(domain.ErrManifestInvalidField, "section must be a mapping"), "section", name)
		}
		keys := make([]string, 0, len(section))
		for key := range section {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !slices.Contains(allowed, key) {
				err := zerr.With(zerr.Wrap(domain.ErrManifestInvalidField, "unknown key"), "section", name)
				return zerr.With(err, "key", key)
			}
		}
	}

	if err := checkValue("package/name", m.Package.Name, nameBadChars); err != nil {
		return err
	}
	if m.Package.Name != strings.ToLower(m.Package.Name) {
		return zerr.With(zerr.Wrap(domain.ErrManifestInvalidField, "package/name must be lowercase"), "name", m.Package.Name)
	}
	if err := checkValue("package/version", m.Package.Version, versionBadChars); err != nil {
		return err
	}
	if m.Source.URL != "" && m.Source.Path != "" {
		return zerr.Wrap(domain.ErrManifestInvalidField, "source/url and source/path are mutually exclusive")
	}
	return nil
}

func checkValue(field, value, bad string) error {
	if value == "" {
		return zerr.With(zerr.Wrap(domain.ErrManifestInvalidField, "missing required field"), "field", field)
	}
	if i := strings.IndexAny(value, bad); i >= 0 {
		err := zerr.With(zerr.Wrap(domain.ErrManifestInvalidField, "bad character in "+field), "value", value)
		return zerr.With(err, "character", string(value[i]))
	}
	return nil
}
