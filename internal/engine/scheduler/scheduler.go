// Package scheduler works through a queue of recipes for one variant,
// building missing dependencies first when their recipes can be found.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/deque"
	"go.trai.ch/zerr"
)

// Scheduler runs the action pipeline over a work queue of recipe locations.
type Scheduler struct {
	resolver  ports.RecipeResolver
	finder    ports.RecipeFinder
	manifests ports.ManifestLoader
	pipeline  ports.ActionPipeline
	tracer    ports.Tracer
	logger    ports.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	resolver ports.RecipeResolver,
	finder ports.RecipeFinder,
	manifests ports.ManifestLoader,
	pipeline ports.ActionPipeline,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		resolver:  resolver,
		finder:    finder,
		manifests: manifests,
		pipeline:  pipeline,
		tracer:    tracer,
		logger:    logger,
	}
}

// Run processes req.Recipes for variant until the queue is empty or a task
// fails. snapshot holds the packages that existed before the run; it is only
// consulted with skip-existing.
func (s *Scheduler) Run(
	ctx context.Context,
	req *domain.BuildRequest,
	variant domain.Variant,
	snapshot *domain.PackageIndex,
) (domain.RunReport, error) {
	state := s.newRunState(req, variant, snapshot)

	names := make([]string, 0, len(req.Recipes))
	for _, loc := range req.Recipes {
		state.queue.PushBack(domain.RecipeTask{Location: loc})
		names = append(names, taskName(loc))
	}
	s.tracer.EmitPlan(ctx, variant.String(), names)

	for {
		task, ok := state.queue.PopFront()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return state.report, err
		}
		if err := state.process(ctx, task); err != nil {
			state.report.Statuses[task.Key()] = domain.StatusFailed
			return state.report, zerr.With(zerr.Wrap(err, "failed to process recipe"), "recipe", task.Location)
		}
	}
	return state.report, nil
}

type runState struct {
	s        *Scheduler
	req      *domain.BuildRequest
	opts     domain.BuildOptions
	snapshot *domain.PackageIndex

	queue deque.Deque[domain.RecipeTask]
	built *domain.PackageSet

	// waiting maps a requeued task to the dependency it waits for.
	waiting map[string]string

	// requested remembers every dependency a task asked for.
	requested map[string]map[string]struct{}

	report domain.RunReport
}

func (s *Scheduler) newRunState(req *domain.BuildRequest, variant domain.Variant, snapshot *domain.PackageIndex) *runState {
	return &runState{
		s:         s,
		req:       req,
		opts:      req.Options(variant),
		snapshot:  snapshot,
		built:     domain.NewPackageSet(),
		waiting:   make(map[string]string),
		requested: make(map[string]map[string]struct{}),
		report: domain.RunReport{
			Variant:  variant,
			Statuses: make(map[string]domain.TaskStatus),
		},
	}
}

// process handles a single task. A returned error aborts the run.
func (st *runState) process(ctx context.Context, task domain.RecipeTask) error {
	key := task.Key()
	st.report.Statuses[key] = domain.StatusResolving

	recipe, err := st.s.resolver.Resolve(ctx, task.Location, st.opts.Variant)
	if errors.Is(err, domain.ErrNotARecipe) {
		st.report.Statuses[key] = domain.StatusIgnored
		st.report.Ignored = append(st.report.Ignored, task.Location)
		st.s.logger.Warn("Ignoring non-recipe: " + task.Location)
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := recipe.Close(); cerr != nil {
			st.s.logger.Warn(fmt.Sprintf("failed to remove %s: %v", recipe.Dir, cerr))
		}
	}()

	if err := st.s.manifests.Validate(recipe.Manifest); err != nil {
		return err
	}

	if st.skipExisting(recipe) {
		st.report.Statuses[key] = domain.StatusSkipped
		delete(st.waiting, key)
		st.report.Skipped = append(st.report.Skipped, recipe.Dist)
		st.s.logger.Info(recipe.Dist + " is already built, skipping.")
		return nil
	}

	st.report.Statuses[key] = domain.StatusActing
	ctx, span := st.s.tracer.Start(ctx, taskName(task.Location), ports.WithQuiet(st.req.Quiet))
	defer span.End()
	span.SetAttribute("recipe", task.Location)
	span.SetAttribute("package_id", recipe.PackageID)
	span.SetAttribute("mode", st.req.Mode().String())

	err = st.s.pipeline.Execute(ctx, recipe, st.req, st.opts, span)

	var depErr *domain.DependencyUnsatisfiedError
	if errors.As(err, &depErr) {
		if err := st.requeue(task, depErr); err != nil {
			span.RecordError(err)
			return err
		}
		span.SetAttribute(ports.AttrRequeued, true)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	st.report.Statuses[key] = domain.StatusCompleted
	delete(st.waiting, key)
	if mode := st.req.Mode(); mode != domain.ModeCheck && mode != domain.ModeOutput {
		st.built.Add(recipe.PackageID)
	}
	st.report.Completed = append(st.report.Completed, recipe.Dist)
	return nil
}

// skipExisting reports whether recipe's package is already built. Check
// mode never skips.
func (st *runState) skipExisting(recipe *domain.ResolvedRecipe) bool {
	if !st.req.SkipExisting || st.req.Mode() == domain.ModeCheck {
		return false
	}
	return st.snapshot.Has(recipe.PackageID) || st.built.Has(recipe.PackageID)
}

// requeue puts task back at the front of the queue behind the recipes that
// can provide the missing dependency.
func (st *runState) requeue(task domain.RecipeTask, depErr *domain.DependencyUnsatisfiedError) error {
	key := task.Key()
	name := depErr.Name()

	if _, seen := st.requested[key][name]; seen {
		return zerr.With(zerr.Wrap(domain.ErrDependencyStillUnsatisfied, depErr.Error()), "dependency", name)
	}

	candidates, err := st.s.finder.Find(st.req.SearchRoot, name)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return zerr.With(depErr, "search_root", st.req.SearchRoot)
	}

	tasks := make([]domain.RecipeTask, 0, len(candidates)+1)
	for _, loc := range candidates {
		candidate := domain.RecipeTask{Location: loc}
		if waitsFor, ok := st.waiting[candidate.Key()]; ok {
			return zerr.With(
				zerr.With(zerr.Wrap(domain.ErrDependencyCycle, depErr.Error()), "dependency", name),
				"waiting_on", waitsFor,
			)
		}
		tasks = append(tasks, candidate)
	}
	tasks = append(tasks, task)

	if st.requested[key] == nil {
		st.requested[key] = make(map[string]struct{})
	}
	st.requested[key][name] = struct{}{}
	st.waiting[key] = name
	st.report.Statuses[key] = domain.StatusRetrying
	st.report.Retried = append(st.report.Retried, task.Location)

	for range candidates {
		st.s.logger.Info(fmt.Sprintf("Missing dependency %s, but found recipe directory, so building %s first", name, name))
	}
	st.queue.PushFront(tasks...)
	return nil
}

func taskName(location string) string {
	return filepath.Base(filepath.Clean(location))
}
