package shell

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
)

// LocalRunner runs commands on the local machine using the exec package.
type LocalRunner struct {
	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration
}

// NewLocalRunner returns a LocalRunner with the given per-invocation timeout.
func NewLocalRunner(timeout time.Duration) *LocalRunner {
	return &LocalRunner{Timeout: timeout}
}

func (r *LocalRunner) Run(ctx context.Context, cmd Cmd) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	slog.Debug("Exec", logfields.Tool(filepath.Base(cmd.Name)), slog.String("cmd", cmd.String()), logfields.Dir(cmd.Dir))

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if out := stdout.String(); out != "" {
		slog.Debug("tool stdout", logfields.Tool(filepath.Base(cmd.Name)), logfields.Output(out))
	}
	if errOut := stderr.String(); errOut != "" {
		slog.Debug("tool stderr", logfields.Tool(filepath.Base(cmd.Name)), logfields.Output(errOut))
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}
