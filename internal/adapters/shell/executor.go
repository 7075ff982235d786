// Package shell provides the shell executor adapter.
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
	"time"

	"go.trai.ch/blitz/internal/core/domain"
	"go.trai.ch/blitz/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// DefaultWaitDelay bounds how long Execute waits for output pipes after the
// process exited or was killed, e.g. when a grandchild keeps them open.
const DefaultWaitDelay = 5 * time.Second

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger    ports.Logger
	waitDelay time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithWaitDelay overrides DefaultWaitDelay.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.waitDelay = d
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, opts ...Option) *Executor {
	e := &Executor{
		logger:    logger,
		waitDelay: DefaultWaitDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the command with the process environment overlaid by cmd.Env.
//
// Output is streamed line by line to the logger and, when the context carries a
// vertex, copied verbatim to the vertex as well.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command) error {
	if cmd == nil || len(cmd.Args) == 0 {
		return domain.ErrEmptyCommand
	}

	name := cmd.Args[0]
	args := cmd.Args[1:]

	cmdEnv := resolveEnvironment(os.Environ(), cmd.Env)

	// Resolve the executable against the PATH the child will see.
	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, args...) //nolint:gosec // command comes from trusted config
	if len(c.Args) > 0 {
		c.Args[0] = name
	}
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	c.Env = cmdEnv
	c.WaitDelay = e.waitDelay

	stdout := newLineWriter(e.logger.Info)
	stderr := newLineWriter(e.logger.Warn)
	c.Stdout = stdout
	c.Stderr = stderr
	if v, ok := ports.VertexFromContext(ctx); ok {
		c.Stdout = io.MultiWriter(v.Stdout(), stdout)
		c.Stderr = io.MultiWriter(v.Stderr(), stderr)
	}

	e.logger.Debug("exec: " + cmd.String())

	err := c.Run()
	stdout.Flush()
	stderr.Flush()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return zerr.With(zerr.Wrap(ctxErr, "command interrupted"), "command", cmd.String())
	}

	// Without a process state the child never ran.
	if c.ProcessState == nil {
		notStarted := zerr.Wrap(domain.ErrCommandNotStarted, err.Error())
		return zerr.With(notStarted, "command", cmd.String())
	}

	if c.ProcessState.Success() {
		// The child exited 0 but a process it left behind kept the output open.
		if errors.Is(err, exec.ErrWaitDelay) {
			e.logger.Warn("exec: " + cmd.String() + ": output still held open after exit, detached")
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to collect command output"), "command", cmd.String())
	}

	failed := zerr.Wrap(domain.ErrCommandFailed, cmd.Name)
	failed = zerr.With(failed, "command", cmd.String())
	return zerr.With(failed, domain.ExitCodeKey, c.ProcessState.ExitCode())
}

// lineWriter buffers partial writes and emits complete lines.
type lineWriter struct {
	emit func(string)
	mu   sync.Mutex
	buf  bytes.Buffer
}

func newLineWriter(emit func(string)) *lineWriter {
	return &lineWriter{emit: emit}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

// resolveEnvironment layers overrides over the system environment.
// The result is sorted so identical inputs produce identical child environments.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "PATH="); ok {
			path = after
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
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
