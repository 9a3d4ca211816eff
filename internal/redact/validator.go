package redact

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// Validator decides whether a candidate is a real secret.
type Validator interface {
	Validate(ctx context.Context, text string) (bool, error)
}

// ValidatorFunc adapts an ordinary function to the Validator interface.
type ValidatorFunc func(ctx context.Context, text string) (bool, error)

// Validate calls f(ctx, text).
func (f ValidatorFunc) Validate(ctx context.Context, text string) (bool, error) {
	return f(ctx, text)
}

// ExecValidator runs an executable with the candidate as its only argument.
// Exit status 0 confirms the candidate, any other clean exit rejects it.
type ExecValidator struct {
	Path    string
	Timeout time.Duration // zero means no bound
}

// Validate runs the executable. Its output is discarded.
func (v *ExecValidator) Validate(ctx context.Context, text string) (bool, error) {
	runCtx := ctx
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	// nil Stdout and Stderr are connected to the null device.
	cmd := exec.CommandContext(runCtx, v.Path, text)
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return false, ErrValidatorTimeout
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return false, nil
	}
	return false, &InvocationError{Path: v.Path, Err: err}
}
