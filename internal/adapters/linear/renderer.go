// Package linear renders recipe progress as prefixed, chronological lines.
package linear

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer writes script output to stdout with a "[recipe]" prefix and
// lifecycle lines to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu    sync.Mutex
	tasks map[string]*taskState
}

type taskState struct {
	name      string
	startTime time.Time
	partial   bytes.Buffer
}

// NewRenderer creates a Renderer. Nil writers select os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		tasks:  make(map[string]*taskState),
	}
}

// Start does nothing; the renderer is synchronous.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop prints partial lines still buffered for unfinished tasks.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, task := range r.tasks {
		r.flushLocked(task)
	}
	return nil
}

// Wait does nothing; the renderer is synchronous.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the recipes queued for a variant.
func (r *Renderer) OnPlanEmit(variant string, recipes []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if variant == "" {
		variant = "default variant"
	}
	arrow := r.output.String(style.Arrow).Foreground(r.output.Color(string(style.Ember))).String()
	_, _ = fmt.Fprintf(r.stderr, "%s Building %d recipe(s) for %s: %s\n",
		arrow, len(recipes), variant, strings.Join(recipes, ", "))
}

// OnTaskStart prints a start line for a recipe.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = &taskState{name: name, startTime: startTime}

	prefix := r.output.String("[" + name + "]").Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnTaskLog prints every complete line in data and keeps the remainder.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	task.partial.Write(data)
	for {
		buffered := task.partial.Bytes()
		i := bytes.IndexByte(buffered, '\n')
		if i < 0 {
			return
		}
		r.printLineLocked(task.name, buffered[:i])
		task.partial.Next(i + 1)
	}
}

// OnTaskComplete prints the remaining output and the outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	delete(r.tasks, spanID)
	r.flushLocked(task)

	duration := endTime.Sub(task.startTime).Round(time.Millisecond)
	prefix := "[" + task.name + "]"

	if errors.Is(err, domain.ErrRecipeDeferred) {
		symbol := r.output.String(style.Retry).Foreground(r.output.Color(string(style.Yellow))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Deferred after %v: %v\n", prefix, symbol, duration, err)
		return
	}
	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
		return
	}
	symbol := r.output.String(style.Check).Foreground(r.output.Color(string(style.Green))).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
}

// flushLocked must be called with r.mu held.
func (r *Renderer) flushLocked(task *taskState) {
	if task.partial.Len() == 0 {
		return
	}
	r.printLineLocked(task.name, task.partial.Bytes())
	task.partial.Reset()
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
