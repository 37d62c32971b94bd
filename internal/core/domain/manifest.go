package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Manifest is the parsed meta.yaml of a recipe.
type Manifest struct {
	Package      PackageSection
	Source       SourceSection
	Build        BuildSection
	Requirements RequirementsSection
	Test         TestSection
	About        map[string]string

	// Raw keeps every top-level section as decoded, for Section lookups.
	Raw map[string]any
}

// PackageSection names the package.
type PackageSection struct {
	Name    string
	Version string
}

// SourceSection describes where the upstream source comes from.
type SourceSection struct {
	URL    string
	Fn     string
	Path   string
	SHA256 string
}

// Empty reports whether the recipe declares no source.
func (s SourceSection) Empty() bool {
	return s.URL == "" && s.Path == ""
}

// BuildSection controls how the package is built.
type BuildSection struct {
	Number       int
	String       string
	Script       []string
	NoarchPython bool
	ScriptEnv    []string
}

// RequirementsSection lists build and run dependencies as match specs.
type RequirementsSection struct {
	Build []string
	Run   []string
}

// TestSection lists the package tests.
type TestSection struct {
	Commands []string
	Imports  []string
	Requires []string
	Files    []string
}

// Section returns a raw top-level section by name.
func (m *Manifest) Section(name string) (map[string]any, bool) {
	if m.Raw == nil {
		return nil, false
	}
	section, ok := m.Raw[name].(map[string]any)
	return section, ok
}

// BuildString is the explicit build/string, or the axis tags of the build
// requirements followed by the build number (e.g. "py34np19_0").
func (m *Manifest) BuildString(v Variant) string {
	if m.Build.String != "" {
		return m.Build.String
	}

	var sb strings.Builder
	for _, axis := range Axes() {
		if !m.requires(axis) {
			continue
		}
		if av, ok := v.Get(axis); ok {
			sb.WriteString(axis.BuildTag())
			sb.WriteString(av.Encoded)
		}
	}
	if sb.Len() > 0 {
		sb.WriteByte('_')
	}
	sb.WriteString(strconv.Itoa(m.Build.Number))
	return sb.String()
}

// Dist is the distribution name: name-version-buildstring.
func (m *Manifest) Dist(v Variant) string {
	return m.Package.Name + "-" + m.Package.Version + "-" + m.BuildString(v)
}

// PackageID is the artifact file name of the distribution.
func (m *Manifest) PackageID(v Variant) string {
	return m.Dist(v) + ArtifactExt
}

func (m *Manifest) requires(axis Axis) bool {
	name := axis.PackageName()
	for _, req := range slices.Concat(m.Requirements.Build, m.Requirements.Run) {
		if ParseMatchSpec(req).Name == name {
			return true
		}
	}
	return false
}
