// Package pipeline runs the requested action on one resolved recipe.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.ActionPipeline = (*Pipeline)(nil)

// Pipeline implements ports.ActionPipeline.
type Pipeline struct {
	Engine    ports.BuildEngine
	Stager    ports.SourceStager
	Store     ports.BuildRecordStore
	Publisher ports.Publisher
	Logger    ports.Logger

	// Out receives results meant for scripts: artifact paths and source
	// directories. Build output goes to the span instead.
	Out io.Writer
	Now func() time.Time
}

// NewPipeline creates a Pipeline writing results to os.Stdout.
func NewPipeline(
	engine ports.BuildEngine,
	stager ports.SourceStager,
	store ports.BuildRecordStore,
	publisher ports.Publisher,
	logger ports.Logger,
) *Pipeline {
	return &Pipeline{
		Engine:    engine,
		Stager:    stager,
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
		Out:       os.Stdout,
		Now:       time.Now,
	}
}

// SetOutput moves script results to w. A nil w restores os.Stdout.
func (p *Pipeline) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	p.Out = w
}

// Execute runs the action selected by req.Mode().
func (p *Pipeline) Execute(
	ctx context.Context,
	recipe *domain.ResolvedRecipe,
	req *domain.BuildRequest,
	opts domain.BuildOptions,
	span ports.Span,
) error {
	switch req.Mode() {
	case domain.ModeCheck:
		if len(req.Recipes) > 1 {
			_, _ = fmt.Fprintln(p.Out, recipe.Dir)
		}
		return nil

	case domain.ModeOutput:
		_, _ = fmt.Fprintln(p.Out, p.Engine.ArtifactPath(recipe, opts))
		return nil

	case domain.ModeTest:
		return p.Engine.Test(ctx, recipe, opts, span)

	case domain.ModeSource:
		dir, err := p.Stager.Stage(ctx, recipe.Dir, recipe.Manifest.Source, domain.WorkPath(opts.Workspace))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(p.Out, "Source tree in:", dir)
		return nil

	default:
		return p.build(ctx, recipe, req, opts, span)
	}
}

func (p *Pipeline) build(
	ctx context.Context,
	recipe *domain.ResolvedRecipe,
	req *domain.BuildRequest,
	opts domain.BuildOptions,
	span ports.Span,
) error {
	start := p.now()

	artifact, err := p.Engine.Build(ctx, recipe, opts, span)
	if err != nil {
		return err
	}

	if req.RunTests() {
		if err := p.Engine.Test(ctx, recipe, opts, span); err != nil {
			return err
		}
	}

	if artifact.Path == "" {
		return nil
	}

	p.record(recipe, opts, artifact, start)
	p.publish(ctx, artifact.Path, req)
	return nil
}

// record stores the build record. A failure is reported but does not undo
// the build.
func (p *Pipeline) record(recipe *domain.ResolvedRecipe, opts domain.BuildOptions, artifact *domain.Artifact, start time.Time) {
	end := p.now()
	rec := domain.BuildRecord{
		PackageID:    artifact.PackageID,
		Dist:         recipe.Dist,
		Name:         recipe.Manifest.Package.Name,
		Version:      recipe.Manifest.Package.Version,
		Build:        recipe.Manifest.BuildString(opts.Variant),
		Subdir:       filepath.Base(filepath.Dir(artifact.Path)),
		Variant:      opts.Variant.String(),
		ArtifactPath: artifact.Path,
		BuiltAt:      end,
		Duration:     end.Sub(start),
	}
	if err := p.Store.Put(opts.Workspace, rec); err != nil {
		p.Logger.Error(err)
	}
}

// publish uploads path when publishing is enabled. Every failure falls back
// to telling the user how to upload by hand.
func (p *Pipeline) publish(ctx context.Context, path string, req *domain.BuildRequest) {
	cfg := req.PublishConfig
	if req.PublishEnabled() {
		err := p.Publisher.Publish(ctx, path, cfg)
		if err == nil {
			return
		}
		p.Logger.Warn(err.Error())
	}
	_, _ = fmt.Fprint(p.Out, p.Publisher.Instructions(path, cfg))
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
