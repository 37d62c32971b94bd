package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/manifest"
	"go.trai.ch/kiln/internal/core/domain"
)

func writeMeta(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte(content), domain.FilePerm))
	return dir
}

func linuxLoader() *manifest.Loader {
	return &manifest.Loader{Platform: manifest.Platform{GOOS: "linux", GOARCH: "amd64"}}
}

func TestLoader_Load(t *testing.T) {
	dir := writeMeta(t, `
package:
  name: numpy
  version: 1.9.2
source:
  fn: numpy-1.9.2.tar.gz
  url: https://example.org/numpy-1.9.2.tar.gz
  sha256: ABCDEF
build:
  number: 2
  script: python setup.py install
requirements:
  build:
    - python
    - libfoo >=1.2
  run:
    - python
test:
  imports:
    - numpy
about:
  home: https://numpy.org
  license: BSD
`)

	m, err := linuxLoader().Load(dir, domain.Variant{})
	require.NoError(t, err)

	assert.Equal(t, "numpy", m.Package.Name)
	assert.Equal(t, "1.9.2", m.Package.Version)
	assert.Equal(t, "numpy-1.9.2.tar.gz", m.Source.Fn)
	assert.Equal(t, "abcdef", m.Source.SHA256)
	assert.Equal(t, 2, m.Build.Number)
	assert.Equal(t, []string{"python setup.py install"}, m.Build.Script)
	assert.Equal(t, []string{"python", "libfoo >=1.2"}, m.Requirements.Build)
	assert.Equal(t, []string{"numpy"}, m.Test.Imports)
	assert.Equal(t, "BSD", m.About["license"])

	section, ok := m.Section("about")
	require.True(t, ok)
	assert.Equal(t, "https://numpy.org", section["home"])
}

func TestLoader_Load_NumericVersion(t *testing.T) {
	dir := writeMeta(t, "package:\n  name: tool\n  version: 1.0\n")

	m, err := linuxLoader().Load(dir, domain.Variant{})
	require.NoError(t, err)
	assert.Equal(t, "1.0", m.Package.Version)
}

func TestLoader_Load_ScriptList(t *testing.T) {
	dir := writeMeta(t, `
package: {name: tool, version: "1"}
build:
  script:
    - ./configure --prefix=$PREFIX
    - make install
`)

	m, err := linuxLoader().Load(dir, domain.Variant{})
	require.NoError(t, err)
	assert.Equal(t, []string{"./configure --prefix=$PREFIX", "make install"}, m.Build.Script)
}

func TestLoader_Load_Selectors(t *testing.T) {
	content := `
package:
  name: tool
  version: "1.0"
build:
  number: 1  # [linux]
  number: 2  # [osx]
requirements:
  build:
    - gcc          # [linux and not aarch64]
    - clang        # [osx]
    - futures      # [py2k]
    - numpy        # [py34 or np19]
`
	dir := writeMeta(t, content)
	v, err := domain.NewVariant(domain.AxisValue{Axis: domain.AxisPython, Raw: "3.4"})
	require.NoError(t, err)

	m, err := linuxLoader().Load(dir, v)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Build.Number)
	assert.Equal(t, []string{"gcc", "numpy"}, m.Requirements.Build)

	osx := &manifest.Loader{Platform: manifest.Platform{GOOS: "darwin", GOARCH: "arm64"}}
	py27, err := domain.NewVariant(domain.AxisValue{Axis: domain.AxisPython, Raw: "2.7"})
	require.NoError(t, err)

	m, err = osx.Load(dir, py27)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Build.Number)
	assert.Equal(t, []string{"clang", "futures"}, m.Requirements.Build)
}

func TestLoader_Load_Errors(t *testing.T) {
	t.Run("missing meta.yaml", func(t *testing.T) {
		_, err := linuxLoader().Load(t.TempDir(), domain.Variant{})
		require.ErrorIs(t, err, domain.ErrManifestNotFound)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := writeMeta(t, "package: [unterminated\n")
		_, err := linuxLoader().Load(dir, domain.Variant{})
		require.ErrorIs(t, err, domain.ErrManifestParse)
		assert.False(t, domain.Reportable(err))
	})

	t.Run("bad selector", func(t *testing.T) {
		dir := writeMeta(t, "package:\n  name: x  # [linux and]\n")
		_, err := linuxLoader().Load(dir, domain.Variant{})
		require.ErrorIs(t, err, domain.ErrManifestParse)
	})
}

func TestLoader_SectionNotAMapping(t *testing.T) {
	l := linuxLoader()
	dir := writeMeta(t, "package: {name: tool, version: \"1.0\"}\nbuild: [1]\nrequirements: {run: [zlib]}\n")

	m, err := l.Load(dir, domain.Variant{})
	require.NoError(t, err)
	assert.Equal(t, "tool", m.Package.Name)
	assert.Equal(t, []string{"zlib"}, m.Requirements.Run)
	assert.Empty(t, m.Build.Script)

	err = l.Validate(m)
	require.ErrorIs(t, err, domain.ErrManifestInvalidField)
	assert.Contains(t, err.Error(), "section must be a mapping")
}

func TestLoader_FieldTypeMismatch(t *testing.T) {
	dir := writeMeta(t, "package: {name: tool, version: \"1.0\"}\nbuild: {number: many}\n")
	_, err := linuxLoader().Load(dir, domain.Variant{})
	require.ErrorIs(t, err, domain.ErrManifestParse)
}

func TestLoader_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "valid",
			content: "package: {name: tool, version: \"1.0\"}\nabout: {license: MIT}\n",
		},
		{
			name:    "unknown section",
			content: "package: {name: tool, version: \"1.0\"}\nextras: {a: 1}\n",
			wantErr: true,
		},
		{
			name:    "unknown key",
			content: "package: {name: tool, version: \"1.0\"}\nbuild: {numbr: 1}\n",
			wantErr: true,
		},
		{
			name:    "section not a mapping",
			content: "package: {name: tool, version: \"1.0\"}\nbuild: [1]\n",
			wantErr: true,
		},
		{
			name:    "missing name",
			content: "package: {version: \"1.0\"}\n",
			wantErr: true,
		},
		{
			name:    "uppercase name",
			content: "package: {name: Tool, version: \"1.0\"}\n",
			wantErr: true,
		},
		{
			name:    "dash in version",
			content: "package: {name: tool, version: 1.0-rc1}\n",
			wantErr: true,
		},
		{
			name:    "url and path",
			content: "package: {name: tool, version: \"1\"}\nsource: {url: http://x/y.tgz, path: ../src}\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := linuxLoader()
			m, err := l.Load(writeMeta(t, tt.content), domain.Variant{})
			require.NoError(t, err)

			err = l.Validate(m)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrManifestInvalidField)
		})
	}
}
