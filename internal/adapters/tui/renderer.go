package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the bubbletea program as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	errCh   chan error
}

// NewRenderer creates a renderer driving model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		errCh:   make(chan error, 1),
	}
}

// Start runs the program in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		final, err := r.program.Run()
		switch {
		case errors.Is(err, tea.ErrInterrupted):
			err = context.Canceled
		case errors.Is(err, tea.ErrProgramKilled):
			// The build's context ended; its error is reported elsewhere.
			err = nil
		}
		if m, ok := final.(*Model); ok && m.Interrupted && err == nil {
			err = context.Canceled
		}
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit after rendering the final state.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has exited. A user quitting before the
// build ends yields context.Canceled.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit forwards a variant's queue to the program.
func (r *Renderer) OnPlanEmit(variant string, recipes []string) {
	r.program.Send(PlanMsg{Variant: variant, Recipes: recipes})
}

// OnTaskStart forwards task start events to the program.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.program.Send(TaskStartMsg{SpanID: spanID, Name: name, StartTime: startTime})
}

// OnTaskLog forwards build output to the program.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(TaskLogMsg{SpanID: spanID, Data: data})
}

// OnTaskComplete forwards task outcomes to the program.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(TaskCompleteMsg{SpanID: spanID, EndTime: endTime, Err: err})
}

// Program returns the underlying tea.Program for testing.
func (r *Renderer) Program() *tea.Program {
	return r.program
}

// Writer returns a writer whose complete lines are printed above the UI.
// Log messages and script results go through it while the program owns
// the terminal.
func (r *Renderer) Writer() io.Writer {
	return &lineWriter{send: func(line string) {
		r.program.Send(LogLineMsg{Line: line})
	}}
}

type lineWriter struct {
	mu      sync.Mutex
	partial bytes.Buffer
	send    func(line string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		buffered := w.partial.Bytes()
		i := bytes.IndexByte(buffered, '\n')
		if i < 0 {
			return len(p), nil
		}
		w.send(string(bytes.TrimSuffix(buffered[:i], []byte("\r"))))
		w.partial.Next(i + 1)
	}
}
