// Package shell runs build and test scripts under a pseudo terminal.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec and pty.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd and waits for it. Under a pty stdout and stderr are merged
// into stdout; without one (no /dev/ptmx) they stay separate.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
	if len(cmd.Args) == 0 {
		return nil
	}

	name := cmd.Args[0]
	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // recipe provided command
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = env

	tail := &tailWriter{}
	err := run(c, io.MultiWriter(stdout, tail), io.MultiWriter(stderr, tail))
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	err = zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	if last := tail.Last(); last != "" {
		err = zerr.With(err, "last_output", last)
	}
	return err
}

func run(c *exec.Cmd, stdout, stderr io.Writer) error {
	if !ptyAvailable() {
		c.Stdout, c.Stderr = stdout, stderr
		return c.Run()
	}

	ptmx, err := pty.Start(c)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		// The read ends with EIO once every holder of the child side exits.
		_, _ = io.Copy(stdout, ptmx)
	}()

	err = c.Wait()
	<-ioDone
	return err
}

// ptyAvailable reports whether a pseudo terminal can be opened at all.
var ptyAvailable = sync.OnceValue(func() bool {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return false
	}
	_ = tty.Close()
	_ = ptmx.Close()
	return true
})

// tailWriter remembers the last complete non-empty line written to it.
type tailWriter struct {
	mu   sync.Mutex
	buf  []byte
	last string
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimSpace(string(w.buf[:i])); line != "" {
			w.last = line
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Last returns the last line, including a trailing partial one.
func (w *tailWriter) Last() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if line := strings.TrimSpace(string(w.buf)); line != "" {
		return line
	}
	return w.last
}

// allowListedEnvVars are the system environment variables a script inherits.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"LANG":   {},
	"TMPDIR": {},
}

// resolveEnvironment starts from the allow-listed system variables and applies
// cmdEnv on top. A PATH in cmdEnv is prepended to the system PATH.
func resolveEnvironment(sysEnv []string, cmdEnv map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}

	for k, v := range cmdEnv {
		if k == "PATH" {
			if sysPath := envMap["PATH"]; sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
