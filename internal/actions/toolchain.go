package actions

import (
	"context"
	"fmt"
	"os/exec"
)

// SetupToolchain verifies the requested toolchain binary is available on
// PATH. It does not install anything: the execution environment is
// expected to provide the toolchain, and a missing binary should fail the
// job here rather than halfway through the build step.
type SetupToolchain struct{}

func (s *SetupToolchain) Name() string { return "setup-toolchain" }

func (s *SetupToolchain) Run(_ context.Context, with map[string]string, _ *Context) error {
	tool := with["tool"]
	if tool == "" {
		tool = "cargo"
	}
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("setup-toolchain: %q not found on PATH: %w", tool, err)
	}
	return nil
}
