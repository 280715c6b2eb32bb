package core

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"pagesci/internal/actions"
)

// DefaultStepTimeout guards against hung commands. The workflow format
// declares no per-step timeout policy, so one conservative bound applies
// to every step.
const DefaultStepTimeout = 5 * time.Minute

// Executor runs single steps: run steps in a shell inside the job
// workspace, uses steps through the action registry.
type Executor struct {
	Registry *actions.Registry
	Timeout  time.Duration
}

// NewExecutor creates an executor backed by the given action registry.
func NewExecutor(registry *actions.Registry) *Executor {
	return &Executor{Registry: registry, Timeout: DefaultStepTimeout}
}

// RunStep executes one step and returns its output and exit code. A
// non-nil error means the step failed; the exit code is the command's
// exit status for run steps and 1 for failed action steps.
func (e *Executor) RunStep(ctx context.Context, step Step, job *actions.Context) (string, int, error) {
	if step.Uses != "" {
		action, err := e.Registry.Resolve(step.Uses)
		if err != nil {
			return "", 1, err
		}
		if err := action.Run(ctx, step.With, job); err != nil {
			return err.Error(), 1, err
		}
		return "", 0, nil
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", step.Run)
	cmd.Dir = job.Workspace

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), exitCode(err), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
