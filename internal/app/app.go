// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/tui"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/matrix"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	resolver     ports.RecipeResolver
	finder       ports.RecipeFinder
	manifests    ports.ManifestLoader
	pipeline     ports.ActionPipeline
	locker       ports.WorkspaceLocker
	index        ports.BuildIndex
	renderer     ports.Renderer
	env          detector.Environment
	teaOptions   []tea.ProgramOption
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	resolver ports.RecipeResolver,
	finder ports.RecipeFinder,
	manifests ports.ManifestLoader,
	pipeline ports.ActionPipeline,
	locker ports.WorkspaceLocker,
	index ports.BuildIndex,
	renderer ports.Renderer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		resolver:     resolver,
		finder:       finder,
		manifests:    manifests,
		pipeline:     pipeline,
		locker:       locker,
		index:        index,
		renderer:     renderer,
	}
}

// WithEnvironment sets the terminal environment used to pick the renderer.
func (a *App) WithEnvironment(env detector.Environment) *App {
	a.env = env
	return a
}

// WithTeaOptions adds options to the TUI program. Used for testing.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// RunOptions carry command line choices that override kiln.yaml.
type RunOptions struct {
	// Publish forces uploading on or off. Nil keeps the configured value.
	Publish *bool
	// OutputMode is one of "auto", "tui" or "linear". Empty means auto.
	OutputMode string
}

// redirectable is implemented by components that can print above the TUI.
// A nil writer restores their default stream.
type redirectable interface {
	SetOutput(w io.Writer)
}

// Build runs the scheduler once per variant of req. Each variant holds the
// build root lock for the whole of its run.
func (a *App) Build(ctx context.Context, req *domain.BuildRequest, opts RunOptions) error {
	if len(req.Recipes) == 0 {
		return domain.ErrNoRecipes
	}

	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(domain.ErrFailedToGetCwd, err.Error())
	}

	settings, err := a.configLoader.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	applySettings(req, settings, cwd, opts)

	if _, err := matrix.Expand(req); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	renderer, restore := a.selectRenderer(ctx, req, opts)

	tp := setupOTel(telemetry.NewBridge(renderer))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	tracer := telemetry.NewOTelTracer("kiln", tp).WithRenderer(renderer)
	sched := scheduler.NewScheduler(a.resolver, a.finder, a.manifests, a.pipeline, tracer, a.logger)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	var summary domain.Summary
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		var err error
		summary, err = matrix.Run(ctx, req, func(ctx context.Context, variant domain.Variant) (domain.RunReport, error) {
			return a.runVariant(ctx, sched, req, variant)
		})
		return err
	})

	err = g.Wait()
	restore()
	if err != nil {
		return err
	}

	if req.Mode() == domain.ModeBuild && len(summary.Reports) > 0 {
		a.logger.Info(fmt.Sprintf("%d package(s) built, %d skipped", summary.Completed(), summary.Skipped()))
	}
	return nil
}

// selectRenderer returns the TUI when the terminal supports it and the
// flag allows it, and the injected linear renderer otherwise. The TUI needs
// stdin for itself, so a pending upload confirmation keeps linear output.
// While the TUI runs, log messages and script results print above it;
// restore undoes that.
func (a *App) selectRenderer(ctx context.Context, req *domain.BuildRequest, opts RunOptions) (ports.Renderer, func()) {
	mode := detector.ResolveMode(a.env.OutputMode(), opts.OutputMode)
	if mode != detector.ModeTUI || (req.PublishEnabled() && req.PublishConfig.Confirm) {
		return a.renderer, func() {}
	}

	model := tui.NewModel(os.Stderr)
	teaOpts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(os.Stderr)}, a.teaOptions...)
	renderer := tui.NewRenderer(&model, teaOpts...)

	var redirected []redirectable
	for _, c := range []any{a.logger, a.pipeline} {
		if r, ok := c.(redirectable); ok {
			r.SetOutput(renderer.Writer())
			redirected = append(redirected, r)
		}
	}
	return renderer, func() {
		for _, r := range redirected {
			r.SetOutput(nil)
		}
	}
}

// runVariant runs the scheduler for one variant under the build root lock.
func (a *App) runVariant(
	ctx context.Context,
	sched *scheduler.Scheduler,
	req *domain.BuildRequest,
	variant domain.Variant,
) (domain.RunReport, error) {
	release, err := a.locker.Acquire(ctx, req.Workspace)
	if err != nil {
		return domain.RunReport{Variant: variant}, err
	}
	defer release()

	var snapshot *domain.PackageIndex
	if req.SkipExisting {
		snapshot, err = a.index.Snapshot(ctx, req.Workspace, req.Channels, req.OverrideChannels)
		if err != nil {
			return domain.RunReport{Variant: variant}, err
		}
	}

	return sched.Run(ctx, req, variant, snapshot)
}

// applySettings fills everything the command line left unset from settings.
func applySettings(req *domain.BuildRequest, settings *domain.Settings, cwd string, opts RunOptions) {
	if req.Workspace == "" {
		req.Workspace = settings.Croot
	}
	if req.SearchRoot == "" {
		req.SearchRoot = settings.SearchRoot
	}
	if req.SearchRoot == "" {
		req.SearchRoot = cwd
	}
	req.Workspace = absolute(cwd, req.Workspace)
	req.SearchRoot = absolute(cwd, req.SearchRoot)
	if req.KnownVersions == nil {
		req.KnownVersions = settings.KnownVersions
	}

	req.OverrideChannels = req.OverrideChannels || settings.OverrideChannels
	if !req.OverrideChannels {
		channels := slices.Clone(settings.Channels)
		for _, ch := range req.Channels {
			if !slices.Contains(channels, ch) {
				channels = append(channels, ch)
			}
		}
		req.Channels = channels
	}

	req.PublishConfig = settings.Publish
	req.Publish = settings.Publish.Enabled
	if opts.Publish != nil {
		req.Publish = *opts.Publish
	}
}

// absolute anchors a relative path at cwd. Build scripts run in the work
// directory, so every path handed to them must be absolute.
func absolute(cwd, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Croot overrides the configured build root.
	Croot string
	// Build removes the work, prefix and test directories.
	Build bool
	// Cache removes build records, channel indexes and downloaded sources.
	Cache bool
}

// Clean removes build directories and caches from the build root. Built
// packages are kept.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(domain.ErrFailedToGetCwd, err.Error())
	}

	croot := options.Croot
	if croot == "" {
		settings, err := a.configLoader.Load(cwd)
		if err != nil {
			return zerr.Wrap(err, "failed to load configuration")
		}
		croot = settings.Croot
	}

	var errs error
	remove := func(path, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.Build {
		remove(domain.WorkPath(croot), "work directory")
		remove(domain.PrefixPath(croot), "build prefix")
		remove(domain.TestPrefixPath(croot), "test prefix")
	}

	if options.Cache {
		remove(domain.StorePath(croot), "build records")
		remove(domain.CachePath(croot), "channel index cache")
		remove(domain.SourceCachePath(croot), "source cache")
	}

	return errs
}

// setupOTel creates a TracerProvider reporting every span to bridge and
// registers it globally.
func setupOTel(bridge *telemetry.Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}
