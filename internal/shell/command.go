// Package shell runs external tools and reports their outcome as a Result
// instead of leaving exit status checks to the caller.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cmd holds the configuration to run an external command.
//
// A Cmd can be run any number of times, and new commands may be derived from existing ones.
type Cmd struct {
	// Name is the path or name of the executable.
	Name string
	// Args is the arguments handed to the command, it should not include the command itself.
	Args []string
	// Dir sets the working directory for the command.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the current process environment.
	Env []string
}

// Command returns a Cmd with the specified command and arguments set.
func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// In returns a copy of the Cmd with the Dir set to dir.
func (cmd Cmd) In(dir string) Cmd {
	cmd.Dir = dir
	return cmd
}

// With returns a copy of the Cmd with the args added to the end of Args.
func (cmd Cmd) With(args ...string) Cmd {
	old := cmd.Args
	cmd.Args = make([]string, len(old)+len(args))
	copy(cmd.Args, old)
	copy(cmd.Args[len(old):], args)
	return cmd
}

// WithEnv returns a copy of the Cmd with the given KEY=VALUE pairs added.
func (cmd Cmd) WithEnv(kv ...string) Cmd {
	old := cmd.Env
	cmd.Env = make([]string, len(old)+len(kv))
	copy(cmd.Env, old)
	copy(cmd.Env[len(old):], kv)
	return cmd
}

// String renders the command line, quoting arguments that contain spaces.
func (cmd Cmd) String() string {
	var b strings.Builder
	b.WriteString(cmd.Name)
	for _, arg := range cmd.Args {
		b.WriteByte(' ')
		if arg == "" || strings.ContainsAny(arg, " \t") {
			fmt.Fprintf(&b, "%q", arg)
		} else {
			b.WriteString(arg)
		}
	}
	return b.String()
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Tail returns the last n lines of stderr, or of stdout when stderr is empty.
func (r *Result) Tail(n int) string {
	if r == nil {
		return ""
	}
	out := strings.TrimSpace(string(r.Stderr))
	if out == "" {
		out = strings.TrimSpace(string(r.Stdout))
	}
	lines := strings.Split(out, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Runner starts commands and waits for them.
//
// Run returns a nil error whenever the process ran to completion, including
// with a non-zero exit status; callers decide what a failed exit means. An
// error is returned only when the process could not be started or was
// interrupted by ctx.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (*Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Cmd) (*Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Cmd) (*Result, error) { return f(ctx, cmd) }
