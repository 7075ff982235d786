package domain

import (
	"errors"
	"maps"
	"strings"

	"go.trai.ch/zerr"
)

// ExitCodeKey is the zerr metadata key carrying a child process exit status.
const ExitCodeKey = "exit_code"

// Command is a single child-process invocation.
type Command struct {
	// Name is a short label used for telemetry and logs, e.g. "cargo build".
	Name string
	// Args holds the program followed by its arguments.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds variables layered over the process environment.
	Env map[string]string
}

// NewCommand creates a Command. The env map is copied.
func NewCommand(name string, args []string, dir string, env map[string]string) *Command {
	return &Command{
		Name: name,
		Args: args,
		Dir:  dir,
		Env:  maps.Clone(env),
	}
}

// String returns the command line as it would be typed in a shell, without quoting.
func (c *Command) String() string {
	return strings.Join(c.Args, " ")
}

// ExitCodeOf walks the error chain and returns the first exit status recorded
// with the ExitCodeKey metadata.
func ExitCodeOf(err error) (int, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		z, ok := e.(*zerr.Error)
		if !ok {
			continue
		}
		if code, ok := z.Metadata()[ExitCodeKey].(int); ok {
			return code, true
		}
	}
	return 0, false
}

// WrapCommandError wraps sentinel with the message of a failed child process and
// carries over its exit status, so errors.Is and ExitCodeOf both keep working.
func WrapCommandError(sentinel, cause error) error {
	err := zerr.Wrap(sentinel, cause.Error())
	if code, ok := ExitCodeOf(cause); ok {
		err = zerr.With(err, ExitCodeKey, code)
	}
	return err
}
