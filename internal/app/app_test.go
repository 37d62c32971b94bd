package app_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type appMocks struct {
	loader    *mocks.MockConfigLoader
	logger    *mocks.MockLogger
	resolver  *mocks.MockRecipeResolver
	finder    *mocks.MockRecipeFinder
	manifests *mocks.MockManifestLoader
	pipeline  *mocks.MockActionPipeline
	locker    *mocks.MockWorkspaceLocker
	index     *mocks.MockBuildIndex
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
}

func newApp(t *testing.T) (*app.App, *appMocks) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	ctrl := gomock.NewController(t)

	m := &appMocks{
		loader:    mocks.NewMockConfigLoader(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		resolver:  mocks.NewMockRecipeResolver(ctrl),
		finder:    mocks.NewMockRecipeFinder(ctrl),
		manifests: mocks.NewMockManifestLoader(ctrl),
		pipeline:  mocks.NewMockActionPipeline(ctrl),
		locker:    mocks.NewMockWorkspaceLocker(ctrl),
		index:     mocks.NewMockBuildIndex(ctrl),
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	}
	a := app.New(m.loader, m.logger, m.resolver, m.finder, m.manifests, m.pipeline, m.locker, m.index,
		linear.NewRenderer(m.stdout, m.stderr))
	return a, m
}

func resolved(name string, v domain.Variant) *domain.ResolvedRecipe {
	m := &domain.Manifest{
		Package:      domain.PackageSection{Name: name, Version: "1.0"},
		Requirements: domain.RequirementsSection{Build: []string{"python"}},
	}
	return &domain.ResolvedRecipe{Dir: name, Manifest: m, Dist: m.Dist(v), PackageID: m.PackageID(v)}
}

func TestApp_Build_NoRecipes(t *testing.T) {
	a, _ := newApp(t)
	err := a.Build(context.Background(), &domain.BuildRequest{}, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrNoRecipes)
}

func TestApp_Build_RunsEveryVariantUnderTheLock(t *testing.T) {
	a, m := newApp(t)
	croot := t.TempDir()

	m.loader.EXPECT().Load(gomock.Any()).Return(&domain.Settings{Croot: croot}, nil)

	var events []string
	m.locker.EXPECT().Acquire(gomock.Any(), croot).DoAndReturn(func(context.Context, string) (func(), error) {
		events = append(events, "lock")
		return func() { events = append(events, "unlock") }, nil
	}).Times(2)
	m.resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, v domain.Variant) (*domain.ResolvedRecipe, error) {
			return resolved("a", v), nil
		}).Times(2)
	m.manifests.EXPECT().Validate(gomock.Any()).Return(nil).Times(2)
	m.pipeline.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *domain.ResolvedRecipe, _ *domain.BuildRequest, opts domain.BuildOptions, span ports.Span) error {
			events = append(events, r.Dist)
			env := opts.Variant.Env()
			_, _ = span.Write([]byte("building with " + env[0] + "\n"))
			return nil
		}).Times(2)
	m.logger.EXPECT().Info("2 package(s) built, 0 skipped")

	req := &domain.BuildRequest{
		Recipes:  []string{"recipes/a"},
		Versions: map[domain.Axis][]string{domain.AxisPython: {"2.7", "3.4"}},
	}
	require.NoError(t, a.Build(context.Background(), req, app.RunOptions{}))

	assert.Equal(t, []string{"lock", "a-1.0-py27_0", "unlock", "lock", "a-1.0-py34_0", "unlock"}, events)
	assert.Contains(t, m.stdout.String(), "[a] building with CONDA_PY=27")
	assert.Contains(t, m.stdout.String(), "[a] building with CONDA_PY=34")
	assert.Contains(t, m.stderr.String(), "Building 1 recipe(s) for python=2.7: a")
	assert.Contains(t, m.stderr.String(), "[a] ✓ Completed in")
}

func TestApp_Build_RendererSelection(t *testing.T) {
	terminal := detector.Environment{StdinTTY: true, StdoutTTY: true}

	tests := []struct {
		name       string
		env        detector.Environment
		outputMode string
		publish    domain.PublishSettings
		wantLinear bool
	}{
		{name: "interactive terminal uses the TUI", env: terminal},
		{name: "CI stays linear", env: detector.Environment{StdoutTTY: true, CI: true}, wantLinear: true},
		{name: "flag forces linear", env: terminal, outputMode: "linear", wantLinear: true},
		{name: "flag forces the TUI", outputMode: "tui"},
		{
			name:       "upload confirmation needs the terminal",
			env:        terminal,
			publish:    domain.PublishSettings{Enabled: true, Confirm: true},
			wantLinear: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newApp(t)
			a.WithEnvironment(tt.env).WithTeaOptions(
				tea.WithInput(strings.NewReader("")),
				tea.WithOutput(io.Discard),
				tea.WithoutSignalHandler(),
				tea.WithoutRenderer(),
			)
			croot := t.TempDir()

			m.loader.EXPECT().Load(gomock.Any()).Return(&domain.Settings{Croot: croot, Publish: tt.publish}, nil)
			m.locker.EXPECT().Acquire(gomock.Any(), croot).Return(func() {}, nil)
			m.resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, v domain.Variant) (*domain.ResolvedRecipe, error) {
					return resolved("a", v), nil
				})
			m.manifests.EXPECT().Validate(gomock.Any()).Return(nil)
			m.pipeline.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *domain.ResolvedRecipe, _ *domain.BuildRequest, _ domain.BuildOptions, span ports.Span) error {
					_, _ = span.Write([]byte("compiling\n"))
					return nil
				})
			m.logger.EXPECT().Info("1 package(s) built, 0 skipped")

			req := &domain.BuildRequest{Recipes: []string{"recipes/a"}}
			require.NoError(t, a.Build(context.Background(), req, app.RunOptions{OutputMode: tt.outputMode}))

			if tt.wantLinear {
				assert.Contains(t, m.stdout.String(), "[a] compiling")
				assert.Contains(t, m.stderr.String(), "[a] ✓ Completed in")
				return
			}
			assert.Empty(t, m.stdout.String())
			assert.Empty(t, m.stderr.String())
		})
	}
}

func TestApp_Build_SnapshotOnlyWithSkipExisting(t *testing.T) {
	a, m := newApp(t)
	croot := t.TempDir()

	m.loader.EXPECT().Load(gomock.Any()).Return(&domain.Settings{Croot: croot, Channels: []string{"defaults"}}, nil)
	m.locker.EXPECT().Acquire(gomock.Any(), croot).Return(func() {}, nil)

	snapshot := domain.NewPackageIndex()
	snapshot.Add("a-1.0-0.tar.bz2", domain.PackageRecord{Name: "a"})
	m.index.EXPECT().Snapshot(gomock.Any(), croot, []string{"defaults", "extra"}, false).Return(snapshot, nil)

	m.resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", gomock.Any()).
		Return(&domain.ResolvedRecipe{Dir: "a", Manifest: &domain.Manifest{}, Dist: "a-1.0-0", PackageID: "a-1.0-0.tar.bz2"}, nil)
	m.manifests.EXPECT().Validate(gomock.Any()).Return(nil)
	m.logger.EXPECT().Info("a-1.0-0 is already built, skipping.")
	m.logger.EXPECT().Info("0 package(s) built, 1 skipped")

	req := &domain.BuildRequest{Recipes: []string{"recipes/a"}, SkipExisting: true, Channels: []string{"extra"}}
	require.NoError(t, a.Build(context.Background(), req, app.RunOptions{}))
}

func TestApp_Build_InvalidVersionFailsBeforeLocking(t *testing.T) {
	a, m := newApp(t)
	m.loader.EXPECT().Load(gomock.Any()).Return(&domain.Settings{Croot: t.TempDir()}, nil)

	req := &domain.BuildRequest{
		Recipes:  []string{"recipes/a"},
		Versions: map[domain.Axis][]string{domain.AxisPython: {"3.4", "3.10"}},
	}
	err := a.Build(context.Background(), req, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidAxisValue)
}

func TestApp_Build_ConfigError(t *testing.T) {
	a, m := newApp(t)
	m.loader.EXPECT().Load(gomock.Any()).Return(nil, domain.ErrConfigParseFailed)

	err := a.Build(context.Background(), &domain.BuildRequest{Recipes: []string{"a"}}, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrConfigParseFailed)
}

func TestApp_Build_LockFailure(t *testing.T) {
	a, m := newApp(t)
	croot := t.TempDir()
	m.loader.EXPECT().Load(gomock.Any()).Return(&domain.Settings{Croot: croot}, nil)
	m.locker.EXPECT().Acquire(gomock.Any(), croot).Return(nil, domain.ErrLockCreateFailed)

	err := a.Build(context.Background(), &domain.BuildRequest{Recipes: []string{"a"}}, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrLockCreateFailed)
}

func TestApplySettings(t *testing.T) {
	yes, no := true, false
	settings := &domain.Settings{
		Croot:         "/croot",
		Channels:      []string{"defaults", "conda-forge"},
		SearchRoot:    "/recipes",
		KnownVersions: map[domain.Axis][]string{domain.AxisPython: {"3.4"}},
		Publish:       domain.PublishSettings{Enabled: true, Backend: domain.PublishS3},
	}

	tests := []struct {
		name  string
		req   domain.BuildRequest
		opts  app.RunOptions
		check func(t *testing.T, req *domain.BuildRequest)
	}{
		{
			name: "defaults come from settings",
			check: func(t *testing.T, req *domain.BuildRequest) {
				assert.Equal(t, "/croot", req.Workspace)
				assert.Equal(t, "/recipes", req.SearchRoot)
				assert.Equal(t, []string{"defaults", "conda-forge"}, req.Channels)
				assert.Equal(t, []string{"3.4"}, req.KnownVersions[domain.AxisPython])
				assert.True(t, req.Publish)
				assert.Equal(t, domain.PublishS3, req.PublishConfig.Backend)
			},
		},
		{
			name: "command line wins",
			req:  domain.BuildRequest{Workspace: "/other", SearchRoot: "/mine", Channels: []string{"conda-forge", "local"}},
			opts: app.RunOptions{Publish: &no},
			check: func(t *testing.T, req *domain.BuildRequest) {
				assert.Equal(t, "/other", req.Workspace)
				assert.Equal(t, "/mine", req.SearchRoot)
				assert.Equal(t, []string{"defaults", "conda-forge", "local"}, req.Channels)
				assert.False(t, req.Publish)
			},
		},
		{
			name: "override channels ignores configured channels",
			req:  domain.BuildRequest{Channels: []string{"local"}, OverrideChannels: true},
			opts: app.RunOptions{Publish: &yes},
			check: func(t *testing.T, req *domain.BuildRequest) {
				assert.Equal(t, []string{"local"}, req.Channels)
				assert.True(t, req.Publish)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			app.ApplySettings(&req, settings, "/cwd", tt.opts)
			tt.check(t, &req)
		})
	}

	t.Run("relative command line paths are anchored at cwd", func(t *testing.T) {
		req := domain.BuildRequest{Workspace: "bld", SearchRoot: filepath.Join("..", "recipes")}
		app.ApplySettings(&req, &domain.Settings{}, "/work/cwd", app.RunOptions{})
		assert.Equal(t, filepath.Join("/work/cwd", "bld"), req.Workspace)
		assert.Equal(t, filepath.Join("/work", "recipes"), req.SearchRoot)
	})

	t.Run("search root defaults to cwd", func(t *testing.T) {
		req := domain.BuildRequest{}
		app.ApplySettings(&req, &domain.Settings{}, "/cwd", app.RunOptions{})
		assert.Equal(t, "/cwd", req.SearchRoot)
	})
}

func TestApp_Clean(t *testing.T) {
	a, m := newApp(t)
	croot := t.TempDir()

	for _, dir := range []string{
		domain.WorkPath(croot),
		domain.PrefixPath(croot),
		domain.TestPrefixPath(croot),
		domain.StorePath(croot),
		domain.CachePath(croot),
		domain.SourceCachePath(croot),
		filepath.Join(croot, "linux-64"),
	} {
		require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	}

	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	require.NoError(t, a.Clean(context.Background(), app.CleanOptions{Croot: croot, Build: true}))
	assert.NoDirExists(t, domain.WorkPath(croot))
	assert.NoDirExists(t, domain.PrefixPath(croot))
	assert.DirExists(t, domain.StorePath(croot))

	require.NoError(t, a.Clean(context.Background(), app.CleanOptions{Croot: croot, Cache: true}))
	assert.NoDirExists(t, domain.StorePath(croot))
	assert.NoDirExists(t, domain.SourceCachePath(croot))
	assert.DirExists(t, filepath.Join(croot, "linux-64"))
}

func TestApp_Clean_UsesConfiguredCroot(t *testing.T) {
	a, m := newApp(t)
	croot := t.TempDir()
	require.NoError(t, os.MkdirAll(domain.WorkPath(croot), domain.DirPerm))

	m.loader.EXPECT().Load(gomock.Any()).Return(&domain.Settings{Croot: croot}, nil)
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	require.NoError(t, a.Clean(context.Background(), app.CleanOptions{Build: true}))
	assert.NoDirExists(t, domain.WorkPath(croot))
}
