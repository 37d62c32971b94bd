package scheduler_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type recordingLogger struct {
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string) { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Warn(msg string) { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(error)     {}

type harness struct {
	resolver  *mocks.MockRecipeResolver
	finder    *mocks.MockRecipeFinder
	manifests *mocks.MockManifestLoader
	pipeline  *mocks.MockActionPipeline
	logger    *recordingLogger
	sched     *scheduler.Scheduler

	// executed lists recipe names in pipeline call order.
	executed []string
	// done holds the recipes whose pipeline succeeded.
	done map[string]bool
	// needs maps a recipe to the requirement it reports missing until the
	// dependency succeeded.
	needs map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		resolver:  mocks.NewMockRecipeResolver(ctrl),
		finder:    mocks.NewMockRecipeFinder(ctrl),
		manifests: mocks.NewMockManifestLoader(ctrl),
		pipeline:  mocks.NewMockActionPipeline(ctrl),
		logger:    &recordingLogger{},
		needs:     make(map[string]string),
		done:      make(map[string]bool),
	}
	h.sched = scheduler.NewScheduler(
		h.resolver, h.finder, h.manifests, h.pipeline,
		telemetry.NewNoOpTracer(), h.logger,
	)

	h.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, loc string, _ domain.Variant) (*domain.ResolvedRecipe, error) {
			return newRecipe(filepath.Base(loc)), nil
		}).AnyTimes()
	h.manifests.EXPECT().Validate(gomock.Any()).Return(nil).AnyTimes()
	h.pipeline.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *domain.ResolvedRecipe, _ *domain.BuildRequest, _ domain.BuildOptions, _ ports.Span) error {
			name := r.Manifest.Package.Name
			h.executed = append(h.executed, name)
			if dep, ok := h.needs[name]; ok && !h.done[dep] {
				return &domain.DependencyUnsatisfiedError{Spec: dep + " >=1.0"}
			}
			h.done[name] = true
			return nil
		}).AnyTimes()
	return h
}

func newRecipe(name string) *domain.ResolvedRecipe {
	dist := name + "-1.0-0"
	return &domain.ResolvedRecipe{
		Dir:       filepath.Join("recipes", name),
		Manifest:  &domain.Manifest{Package: domain.PackageSection{Name: name, Version: "1.0"}},
		Dist:      dist,
		PackageID: dist + domain.ArtifactExt,
	}
}

func request(recipes ...string) *domain.BuildRequest {
	return &domain.BuildRequest{Recipes: recipes, SearchRoot: "recipes", Workspace: "croot"}
}

func TestScheduler_BuildsDiscoveredDependencyFirst(t *testing.T) {
	h := newHarness(t)
	h.needs["a"] = "c"
	h.finder.EXPECT().Find("recipes", "c").Return([]string{"recipes/c"}, nil)

	report, err := h.sched.Run(context.Background(), request("recipes/a", "recipes/b"), domain.Variant{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c", "a", "b"}, h.executed)
	assert.Equal(t, []string{"c-1.0-0", "a-1.0-0", "b-1.0-0"}, report.Completed)
	assert.Equal(t, []string{"recipes/a"}, report.Retried)
	assert.Equal(t, []string{
		"Missing dependency c, but found recipe directory, so building c first",
	}, h.logger.infos)

	key := domain.RecipeTask{Location: "recipes/a"}.Key()
	assert.Equal(t, domain.StatusCompleted, report.Statuses[key])
}

func TestScheduler_CandidatesRunInDiscoveryOrder(t *testing.T) {
	h := newHarness(t)
	h.needs["a"] = "c"
	h.finder.EXPECT().Find("recipes", "c").Return([]string{"recipes/c-1.0", "recipes/c-2.0", "recipes/c"}, nil)

	_, err := h.sched.Run(context.Background(), request("recipes/a"), domain.Variant{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c-1.0", "c-2.0", "c", "a"}, h.executed)
	assert.Len(t, h.logger.infos, 3)
}

func TestScheduler_UndiscoverableDependencyIsFatal(t *testing.T) {
	h := newHarness(t)
	h.needs["a"] = "missing"
	h.finder.EXPECT().Find("recipes", "missing").Return(nil, nil)

	report, err := h.sched.Run(context.Background(), request("recipes/a", "recipes/b"), domain.Variant{}, nil)
	require.Error(t, err)

	var depErr *domain.DependencyUnsatisfiedError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "missing >=1.0", depErr.Spec)
	require.ErrorIs(t, err, domain.ErrDependencyUnsatisfied)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "recipes/a", zErr.Metadata()["recipe"])

	assert.Equal(t, []string{"a"}, h.executed)
	assert.Empty(t, report.Completed)
	key := domain.RecipeTask{Location: "recipes/a"}.Key()
	assert.Equal(t, domain.StatusFailed, report.Statuses[key])
}

func TestScheduler_SkipExisting(t *testing.T) {
	h := newHarness(t)

	snapshot := domain.NewPackageIndex()
	snapshot.Add("a-1.0-0.tar.bz2", domain.PackageRecord{Name: "a", Version: "1.0", Build: "0"})

	req := request("recipes/a", "recipes/b", "recipes/b")
	req.SkipExisting = true

	report, err := h.sched.Run(context.Background(), req, domain.Variant{}, snapshot)
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, h.executed)
	assert.Equal(t, []string{"a-1.0-0", "b-1.0-0"}, report.Skipped)
	assert.Equal(t, []string{
		"a-1.0-0 is already built, skipping.",
		"b-1.0-0 is already built, skipping.",
	}, h.logger.infos)
}

func TestScheduler_SkipExistingRerunBuildsNothing(t *testing.T) {
	h := newHarness(t)

	snapshot := domain.NewPackageIndex()
	for _, name := range []string{"a", "b"} {
		snapshot.Add(name+"-1.0-0.tar.bz2", domain.PackageRecord{Name: name})
	}

	req := request("recipes/a", "recipes/b")
	req.SkipExisting = true

	report, err := h.sched.Run(context.Background(), req, domain.Variant{}, snapshot)
	require.NoError(t, err)
	assert.Empty(t, h.executed)
	assert.Empty(t, report.Completed)
	assert.Len(t, report.Skipped, 2)
}

func TestScheduler_WithoutSkipExistingRebuilds(t *testing.T) {
	h := newHarness(t)

	snapshot := domain.NewPackageIndex()
	snapshot.Add("a-1.0-0.tar.bz2", domain.PackageRecord{Name: "a"})

	_, err := h.sched.Run(context.Background(), request("recipes/a", "recipes/a"), domain.Variant{}, snapshot)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a"}, h.executed)
}

func TestScheduler_CheckAndOutputDoNotMarkBuilt(t *testing.T) {
	for _, tc := range []struct {
		name string
		set  func(*domain.BuildRequest)
	}{
		{name: "check", set: func(r *domain.BuildRequest) { r.Check = true }},
		{name: "output", set: func(r *domain.BuildRequest) { r.Output = true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			req := request("recipes/a", "recipes/a")
			req.SkipExisting = true
			tc.set(req)

			report, err := h.sched.Run(context.Background(), req, domain.Variant{}, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "a"}, h.executed)
			assert.Empty(t, report.Skipped)
		})
	}
}

func TestScheduler_SkipExistingInOtherModes(t *testing.T) {
	for _, tc := range []struct {
		name        string
		set         func(*domain.BuildRequest)
		wantChecked bool
	}{
		{name: "check validates built packages", set: func(r *domain.BuildRequest) { r.Check = true }, wantChecked: true},
		{name: "output skips built packages", set: func(r *domain.BuildRequest) { r.Output = true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)

			snapshot := domain.NewPackageIndex()
			snapshot.Add("a-1.0-0.tar.bz2", domain.PackageRecord{Name: "a"})

			req := request("recipes/a")
			req.SkipExisting = true
			tc.set(req)

			report, err := h.sched.Run(context.Background(), req, domain.Variant{}, snapshot)
			require.NoError(t, err)

			if tc.wantChecked {
				assert.Equal(t, []string{"a"}, h.executed)
				assert.Equal(t, []string{"a-1.0-0"}, report.Completed)
				assert.Empty(t, h.logger.infos)
				return
			}
			assert.Empty(t, h.executed)
			assert.Equal(t, []string{"a-1.0-0 is already built, skipping."}, h.logger.infos)
		})
	}
}

func TestScheduler_IgnoresNonRecipe(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockRecipeResolver(ctrl)
	manifests := mocks.NewMockManifestLoader(ctrl)
	pipeline := mocks.NewMockActionPipeline(ctrl)
	log := &recordingLogger{}

	resolver.EXPECT().Resolve(gomock.Any(), "notes.txt", gomock.Any()).
		Return(nil, zerr.With(zerr.Wrap(domain.ErrNotARecipe, "not a directory or recipe tarball"), "path", "notes.txt"))
	resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", gomock.Any()).Return(newRecipe("a"), nil)
	manifests.EXPECT().Validate(gomock.Any()).Return(nil)
	pipeline.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	sched := scheduler.NewScheduler(resolver, mocks.NewMockRecipeFinder(ctrl), manifests, pipeline,
		telemetry.NewNoOpTracer(), log)

	report, err := sched.Run(context.Background(), request("notes.txt", "recipes/a"), domain.Variant{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ignoring non-recipe: notes.txt"}, log.warns)
	assert.Equal(t, []string{"notes.txt"}, report.Ignored)
	assert.Equal(t, []string{"a-1.0-0"}, report.Completed)
}

func TestScheduler_StillUnsatisfiedAfterCandidates(t *testing.T) {
	h := newHarness(t)
	// c never satisfies a's requirement.
	h.needs["a"] = "c"
	h.finder.EXPECT().Find("recipes", "c").Return([]string{"recipes/other"}, nil)

	_, err := h.sched.Run(context.Background(), request("recipes/a"), domain.Variant{}, nil)
	require.ErrorIs(t, err, domain.ErrDependencyStillUnsatisfied)
	assert.Equal(t, []string{"a", "other", "a"}, h.executed)
}

func TestScheduler_DependencyCycle(t *testing.T) {
	h := newHarness(t)
	h.needs["a"] = "b"
	h.needs["b"] = "a"
	h.finder.EXPECT().Find("recipes", "b").Return([]string{"recipes/b"}, nil)
	h.finder.EXPECT().Find("recipes", "a").Return([]string{"recipes/a"}, nil)

	_, err := h.sched.Run(context.Background(), request("recipes/a"), domain.Variant{}, nil)
	require.ErrorIs(t, err, domain.ErrDependencyCycle)
	assert.Equal(t, []string{"a", "b"}, h.executed)
}

func TestScheduler_FatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		resolve error
		valid   error
		execute error
		want    error
	}{
		{name: "missing directory", resolve: zerr.Wrap(domain.ErrRecipeDirNotFound, "no such directory: recipes/a"), want: domain.ErrRecipeDirNotFound},
		{name: "bad manifest", resolve: zerr.Wrap(domain.ErrManifestParse, "bad yaml"), want: domain.ErrManifestParse},
		{name: "invalid field", valid: zerr.Wrap(domain.ErrManifestInvalidField, "unknown key"), want: domain.ErrManifestInvalidField},
		{name: "build failure", execute: zerr.Wrap(domain.ErrBuildExecutionFailed, "exit 1"), want: domain.ErrBuildExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			resolver := mocks.NewMockRecipeResolver(ctrl)
			manifests := mocks.NewMockManifestLoader(ctrl)
			pipeline := mocks.NewMockActionPipeline(ctrl)

			cleaned := false
			recipe := newRecipe("a")
			recipe.Temporary = true
			recipe.Cleanup = func() error {
				cleaned = true
				return nil
			}

			if tt.resolve != nil {
				resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", gomock.Any()).Return(nil, tt.resolve)
			} else {
				resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", gomock.Any()).Return(recipe, nil)
				manifests.EXPECT().Validate(recipe.Manifest).Return(tt.valid)
				if tt.valid == nil {
					pipeline.EXPECT().Execute(gomock.Any(), recipe, gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.execute)
				}
			}

			sched := scheduler.NewScheduler(resolver, mocks.NewMockRecipeFinder(ctrl), manifests, pipeline,
				telemetry.NewNoOpTracer(), &recordingLogger{})

			_, err := sched.Run(context.Background(), request("recipes/a", "recipes/b"), domain.Variant{}, nil)
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "failed to process recipe")
			if tt.resolve == nil {
				assert.True(t, cleaned, "temporary recipe must be removed")
			}
		})
	}
}

func TestScheduler_TemporaryRecipeRemovedOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockRecipeResolver(ctrl)
	manifests := mocks.NewMockManifestLoader(ctrl)
	pipeline := mocks.NewMockActionPipeline(ctrl)

	cleanups := 0
	resolver.EXPECT().Resolve(gomock.Any(), "a.tar.bz2", gomock.Any()).
		DoAndReturn(func(context.Context, string, domain.Variant) (*domain.ResolvedRecipe, error) {
			r := newRecipe("a")
			r.Temporary = true
			r.Cleanup = func() error {
				cleanups++
				return errors.New("busy")
			}
			return r, nil
		})
	manifests.EXPECT().Validate(gomock.Any()).Return(nil)
	pipeline.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	log := &recordingLogger{}
	sched := scheduler.NewScheduler(resolver, mocks.NewMockRecipeFinder(ctrl), manifests, pipeline,
		telemetry.NewNoOpTracer(), log)

	_, err := sched.Run(context.Background(), request("a.tar.bz2"), domain.Variant{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cleanups)
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "busy")
}

func TestScheduler_PassesVariantOptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockRecipeResolver(ctrl)
	manifests := mocks.NewMockManifestLoader(ctrl)
	pipeline := mocks.NewMockActionPipeline(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	variant, err := domain.Variant{}.With(domain.AxisPython, "3.4")
	require.NoError(t, err)

	req := request("recipes/a")
	req.Quiet = true

	tracer.EXPECT().EmitPlan(gomock.Any(), "python=3.4", []string{"a"})
	tracer.EXPECT().Start(gomock.Any(), "a", gomock.Any()).Return(context.Background(), span)
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().End()

	resolver.EXPECT().Resolve(gomock.Any(), "recipes/a", variant).Return(newRecipe("a"), nil)
	manifests.EXPECT().Validate(gomock.Any()).Return(nil)
	pipeline.EXPECT().Execute(gomock.Any(), gomock.Any(), req, gomock.Any(), span).
		DoAndReturn(func(_ context.Context, _ *domain.ResolvedRecipe, _ *domain.BuildRequest, opts domain.BuildOptions, _ ports.Span) error {
			assert.Equal(t, variant, opts.Variant)
			assert.Equal(t, "croot", opts.Workspace)
			assert.True(t, opts.Quiet)
			return nil
		})

	sched := scheduler.NewScheduler(resolver, mocks.NewMockRecipeFinder(ctrl), manifests, pipeline, tracer, &recordingLogger{})
	report, err := sched.Run(context.Background(), req, variant, nil)
	require.NoError(t, err)
	assert.Equal(t, variant, report.Variant)
}

func TestScheduler_CanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.sched.Run(ctx, request("recipes/a"), domain.Variant{}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.executed)
}
