package domain

import "path/filepath"

// RecipeTask is one pending unit of scheduling work.
type RecipeTask struct {
	// Location is the recipe directory or archive as given or discovered.
	Location string
}

// Key identifies the task across requeues.
func (t RecipeTask) Key() string {
	if abs, err := filepath.Abs(t.Location); err == nil {
		return abs
	}
	return filepath.Clean(t.Location)
}

// ResolvedRecipe is a materialized recipe directory with its metadata.
type ResolvedRecipe struct {
	// Dir holds meta.yaml.
	Dir string
	// Temporary marks Dir as extracted from an archive; it must be removed.
	Temporary bool
	// Cleanup removes the temporary tree. Nil when nothing needs removing.
	Cleanup func() error

	Manifest  *Manifest
	Dist      string
	PackageID string
}

// Close runs Cleanup, if any.
func (r *ResolvedRecipe) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	cleanup := r.Cleanup
	r.Cleanup = nil
	return cleanup()
}

// TaskStatus is the scheduler state of a recipe task.
type TaskStatus string

const (
	// StatusPending means the task is queued.
	StatusPending TaskStatus = "Pending"
	// StatusResolving means the task's location is being materialized.
	StatusResolving TaskStatus = "Resolving"
	// StatusIgnored means the location was not a recipe.
	StatusIgnored TaskStatus = "Ignored"
	// StatusSkipped means the package already exists.
	StatusSkipped TaskStatus = "Skipped"
	// StatusActing means the action pipeline is running.
	StatusActing TaskStatus = "Acting"
	// StatusRetrying means the task was requeued behind its dependencies.
	StatusRetrying TaskStatus = "Retrying"
	// StatusCompleted means the action pipeline succeeded.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed means the task aborted the run.
	StatusFailed TaskStatus = "Failed"
)

// RunReport is the outcome of one scheduler run for one variant.
type RunReport struct {
	Variant   Variant
	Completed []string
	Skipped   []string
	Ignored   []string
	Retried   []string
	// Statuses holds the last status of every task, keyed by RecipeTask.Key.
	Statuses map[string]TaskStatus
}

// Summary accumulates reports across the version matrix.
type Summary struct {
	Reports []RunReport
}

// Add appends a report.
func (s *Summary) Add(r RunReport) {
	s.Reports = append(s.Reports, r)
}

// Completed counts completed tasks over every report.
func (s *Summary) Completed() int {
	n := 0
	for _, r := range s.Reports {
		n += len(r.Completed)
	}
	return n
}

// Skipped counts skipped tasks over every report.
func (s *Summary) Skipped() int {
	n := 0
	for _, r := range s.Reports {
		n += len(r.Skipped)
	}
	return n
}
