package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

type mockApp struct {
	buildFunc func(ctx context.Context, req *domain.BuildRequest, opts app.RunOptions) error
	cleanFunc func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Build(ctx context.Context, req *domain.BuildRequest, opts app.RunOptions) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, req, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var (
			req  *domain.BuildRequest
			opts app.RunOptions
		)
		mock := &mockApp{buildFunc: func(_ context.Context, r *domain.BuildRequest, o app.RunOptions) error {
			req, opts = r, o
			return nil
		}}

		_, err := execute(t, mock, "build", "recipes/a", "recipes/b.tar.bz2",
			"--python", "2.7", "--python", "3.4", "--numpy", "all", "--R", "3.1",
			"-c", "local", "--channel", "conda-forge", "--override-channels",
			"--skip-existing", "-q", "--no-test", "--no-include-recipe",
			"--croot", "/tmp/croot", "--search-root", "recipes", "--publish")
		require.NoError(t, err)
		require.NotNil(t, req)

		assert.Equal(t, []string{"recipes/a", "recipes/b.tar.bz2"}, req.Recipes)
		assert.Equal(t, []string{"2.7", "3.4"}, req.Versions[domain.AxisPython])
		assert.Equal(t, []string{"all"}, req.Versions[domain.AxisNumpy])
		assert.Equal(t, []string{"3.1"}, req.Versions[domain.AxisR])
		assert.NotContains(t, req.Versions, domain.AxisPerl)
		assert.Equal(t, []string{"local", "conda-forge"}, req.Channels)
		assert.True(t, req.OverrideChannels)
		assert.True(t, req.SkipExisting)
		assert.True(t, req.Quiet)
		assert.True(t, req.NoTest)
		assert.False(t, req.IncludeRecipe)
		assert.Equal(t, "/tmp/croot", req.Workspace)
		assert.Equal(t, "recipes", req.SearchRoot)
		assert.Equal(t, domain.ModeBuild, req.Mode())
		require.NotNil(t, opts.Publish)
		assert.True(t, *opts.Publish)
	})

	t.Run("mode flags", func(t *testing.T) {
		tests := []struct {
			args  []string
			mode  domain.ActionMode
			phase domain.BuildPhase
		}{
			{args: []string{"--check", "--output"}, mode: domain.ModeCheck},
			{args: []string{"--output", "-t"}, mode: domain.ModeOutput},
			{args: []string{"-t", "-s"}, mode: domain.ModeTest},
			{args: []string{"-s"}, mode: domain.ModeSource},
			{args: []string{"-b", "-p"}, mode: domain.ModeBuild, phase: domain.PhaseBuildOnly},
			{args: []string{"-p"}, mode: domain.ModeBuild, phase: domain.PhasePostOnly},
		}
		for _, tt := range tests {
			var req *domain.BuildRequest
			mock := &mockApp{buildFunc: func(_ context.Context, r *domain.BuildRequest, _ app.RunOptions) error {
				req = r
				return nil
			}}
			_, err := execute(t, mock, append([]string{"build", "recipe"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, req.Mode(), "%v", tt.args)
			assert.Equal(t, tt.phase, req.Phase(), "%v", tt.args)
			assert.True(t, req.IncludeRecipe)
		}
	})

	t.Run("publish defaults to configuration", func(t *testing.T) {
		var opts app.RunOptions
		mock := &mockApp{buildFunc: func(_ context.Context, _ *domain.BuildRequest, o app.RunOptions) error {
			opts = o
			return nil
		}}
		_, err := execute(t, mock, "build", "recipe")
		require.NoError(t, err)
		assert.Nil(t, opts.Publish)

		_, err = execute(t, mock, "build", "recipe", "--no-publish")
		require.NoError(t, err)
		require.NotNil(t, opts.Publish)
		assert.False(t, *opts.Publish)
	})

	t.Run("publish flags are exclusive", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "build", "recipe", "--publish", "--no-publish")
		require.Error(t, err)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		mock := &mockApp{buildFunc: func(context.Context, *domain.BuildRequest, app.RunOptions) error {
			return errors.New("simulated error")
		}}
		_, err := execute(t, mock, "build", "recipe")
		require.ErrorContains(t, err, "simulated error")
	})
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{name: "default", args: nil, want: app.CleanOptions{Build: true}},
		{name: "cache", args: []string{"--cache"}, want: app.CleanOptions{Cache: true}},
		{name: "all", args: []string{"--all", "--croot", "/c"}, want: app.CleanOptions{Croot: "/c", Build: true, Cache: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got app.CleanOptions
			mock := &mockApp{cleanFunc: func(_ context.Context, o app.CleanOptions) error {
				got = o
				return nil
			}}
			_, err := execute(t, mock, append([]string{"clean"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kiln version "+build.Version)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "kiln version "+build.Version)
}

func TestCommands_UsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"build", "--bogus"},
		{"clean", "extra"},
		{"nope"},
		{"build", "recipe", "--output-mode", "fancy"},
		{"--log-format", "xml", "build", "recipe"},
	} {
		_, err := execute(t, &mockApp{}, args...)
		require.ErrorIs(t, err, domain.ErrInvalidUsage, "%v", args)
		assert.False(t, domain.Reportable(err))
	}

	mock := &mockApp{buildFunc: func(context.Context, *domain.BuildRequest, app.RunOptions) error {
		return errors.New("boom")
	}}
	_, err := execute(t, mock, "build", "recipe")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidUsage)
}

func TestCommands_OutputMode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: nil, want: "auto"},
		{name: "explicit", args: []string{"--output-mode", "tui"}, want: "tui"},
		{name: "ci shorthand", args: []string{"--ci"}, want: "linear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			mock := &mockApp{buildFunc: func(_ context.Context, _ *domain.BuildRequest, o app.RunOptions) error {
				got = o.OutputMode
				return nil
			}}

			_, err := execute(t, mock, append([]string{"build", "recipe"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type recordingFormatter struct {
	calls []bool
}

func (r *recordingFormatter) SetJSON(enable bool) {
	r.calls = append(r.calls, enable)
}

func TestCommands_LogFormat(t *testing.T) {
	for _, tt := range []struct {
		args []string
		want []bool
	}{
		{args: []string{"build", "recipe"}, want: []bool{false}},
		{args: []string{"--log-format", "json", "build", "recipe"}, want: []bool{true}},
		{args: []string{"clean", "--log-format=json"}, want: []bool{true}},
	} {
		formatter := &recordingFormatter{}
		cli := commands.New(&mockApp{}).WithLogFormatter(formatter)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs(tt.args)

		require.NoError(t, cli.Execute(context.Background()), "%v", tt.args)
		assert.Equal(t, tt.want, formatter.calls, "%v", tt.args)
	}
}
