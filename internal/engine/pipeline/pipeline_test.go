package pipeline_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	engine    *mocks.MockBuildEngine
	stager    *mocks.MockSourceStager
	store     *mocks.MockBuildRecordStore
	publisher *mocks.MockPublisher
	logger    *mocks.MockLogger
	out       *bytes.Buffer
	p         *pipeline.Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		engine:    mocks.NewMockBuildEngine(ctrl),
		stager:    mocks.NewMockSourceStager(ctrl),
		store:     mocks.NewMockBuildRecordStore(ctrl),
		publisher: mocks.NewMockPublisher(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		out:       &bytes.Buffer{},
	}
	f.p = pipeline.NewPipeline(f.engine, f.stager, f.store, f.publisher, f.logger)
	f.p.Out = f.out

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	f.p.Now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 3 * time.Second)
	}
	return f
}

func testRecipe() *domain.ResolvedRecipe {
	return &domain.ResolvedRecipe{
		Dir: "/recipes/pkg",
		Manifest: &domain.Manifest{
			Package: domain.PackageSection{Name: "pkg", Version: "1.0"},
			Source:  domain.SourceSection{Path: "src"},
		},
		Dist:      "pkg-1.0-0",
		PackageID: "pkg-1.0-0.tar.bz2",
	}
}

var artifactPath = filepath.Join("/croot", "linux-64", "pkg-1.0-0.tar.bz2")

func TestPipeline_CheckMode(t *testing.T) {
	tests := []struct {
		name    string
		recipes []string
		want    string
	}{
		{name: "single recipe prints nothing", recipes: []string{"a"}, want: ""},
		{name: "several recipes print the path", recipes: []string{"a", "b"}, want: "/recipes/pkg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := &domain.BuildRequest{Recipes: tt.recipes, Check: true, Output: true}

			err := f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{}, telemetry.NoOpSpan{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.out.String())
		})
	}
}

func TestPipeline_OutputMode(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{Output: true, Test: true}
	opts := domain.BuildOptions{Workspace: "/croot"}

	f.engine.EXPECT().ArtifactPath(gomock.Any(), opts).Return(artifactPath)

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, opts, telemetry.NoOpSpan{}))
	assert.Equal(t, artifactPath+"\n", f.out.String())
}

func TestPipeline_TestMode(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{Test: true, Source: true}

	f.engine.EXPECT().Test(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(zerr.Wrap(domain.ErrTestFailed, "exit 1"))

	err := f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{}, telemetry.NoOpSpan{})
	require.ErrorIs(t, err, domain.ErrTestFailed)
}

func TestPipeline_SourceMode(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{Source: true}
	opts := domain.BuildOptions{Workspace: "/croot"}

	f.stager.EXPECT().Stage(gomock.Any(), "/recipes/pkg", domain.SourceSection{Path: "src"}, domain.WorkPath("/croot")).
		Return("/croot/work/pkg-1.0", nil)

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, opts, telemetry.NoOpSpan{}))
	assert.Equal(t, "Source tree in: /croot/work/pkg-1.0\n", f.out.String())
}

func TestPipeline_BuildTestRecordPublish(t *testing.T) {
	f := newFixture(t)
	variant, err := domain.Variant{}.With(domain.AxisPython, "3.4")
	require.NoError(t, err)

	publishCfg := domain.PublishSettings{Backend: domain.PublishTool, Tool: "anaconda"}
	req := &domain.BuildRequest{Publish: true, PublishConfig: publishCfg}
	opts := domain.BuildOptions{Workspace: "/croot", Variant: variant}

	gomock.InOrder(
		f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), opts, gomock.Any()).
			Return(&domain.Artifact{PackageID: "pkg-1.0-0.tar.bz2", Path: artifactPath}, nil),
		f.engine.EXPECT().Test(gomock.Any(), gomock.Any(), opts, gomock.Any()).Return(nil),
		f.store.EXPECT().Put("/croot", gomock.Any()).DoAndReturn(func(_ string, rec domain.BuildRecord) error {
			assert.Equal(t, "pkg-1.0-0.tar.bz2", rec.PackageID)
			assert.Equal(t, "pkg-1.0-0", rec.Dist)
			assert.Equal(t, "pkg", rec.Name)
			assert.Equal(t, "linux-64", rec.Subdir)
			assert.Equal(t, "python=3.4", rec.Variant)
			assert.Equal(t, artifactPath, rec.ArtifactPath)
			assert.Equal(t, 3*time.Second, rec.Duration)
			return nil
		}),
		f.publisher.EXPECT().Publish(gomock.Any(), artifactPath, publishCfg).Return(nil),
	)

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, opts, telemetry.NoOpSpan{}))
	assert.Empty(t, f.out.String())
}

func TestPipeline_NoTestSkipsTests(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{NoTest: true}

	f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.Artifact{Path: artifactPath}, nil)
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().Instructions(artifactPath, gomock.Any()).Return("# upload later\n")

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{}, telemetry.NoOpSpan{}))
	assert.Equal(t, "# upload later\n", f.out.String())
}

func TestPipeline_BuildOnlySkipsTestRecordAndPublish(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{BuildOnly: true, Publish: true}

	f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.Artifact{PackageID: "pkg-1.0-0.tar.bz2"}, nil)

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{Phase: domain.PhaseBuildOnly}, telemetry.NoOpSpan{}))
	assert.Empty(t, f.out.String())
}

func TestPipeline_PostOnlySkipsTestAndPublish(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{Post: true, Publish: true}

	f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.Artifact{Path: artifactPath}, nil)
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().Instructions(artifactPath, gomock.Any()).Return("# upload later\n")

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{Phase: domain.PhasePostOnly}, telemetry.NoOpSpan{}))
}

func TestPipeline_BuildErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	depErr := &domain.DependencyUnsatisfiedError{Spec: "numpy >=1.7"}

	f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, depErr)

	err := f.p.Execute(context.Background(), testRecipe(), &domain.BuildRequest{}, domain.BuildOptions{}, telemetry.NoOpSpan{})
	var got *domain.DependencyUnsatisfiedError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "numpy >=1.7", got.Spec)
}

func TestPipeline_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{Publish: true, NoTest: true}

	f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.Artifact{Path: artifactPath}, nil)
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), artifactPath, gomock.Any()).
		Return(zerr.Wrap(domain.ErrPublisherUnavailable, "anaconda"))
	f.logger.EXPECT().Warn(gomock.Any())
	f.publisher.EXPECT().Instructions(artifactPath, gomock.Any()).Return("# upload later\n")

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{}, telemetry.NoOpSpan{}))
	assert.Equal(t, "# upload later\n", f.out.String())
}

func TestPipeline_RecordFailureIsReported(t *testing.T) {
	f := newFixture(t)
	req := &domain.BuildRequest{NoTest: true}

	f.engine.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.Artifact{Path: artifactPath}, nil)
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(domain.ErrStoreWriteFailed)
	f.logger.EXPECT().Error(domain.ErrStoreWriteFailed)
	f.publisher.EXPECT().Instructions(gomock.Any(), gomock.Any()).Return("")

	require.NoError(t, f.p.Execute(context.Background(), testRecipe(), req, domain.BuildOptions{}, telemetry.NoOpSpan{}))
}
