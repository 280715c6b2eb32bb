package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesci/internal/actions"
)

func newJobContext(t *testing.T) *actions.Context {
	t.Helper()
	return &actions.Context{Workspace: t.TempDir(), Outputs: make(map[string]string)}
}

func TestRunStepCommand(t *testing.T) {
	e := NewExecutor(actions.NewRegistry())

	output, code, err := e.RunStep(context.Background(), Step{Run: "echo hello"}, newJobContext(t))
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", output)
}

func TestRunStepCommandRunsInWorkspace(t *testing.T) {
	e := NewExecutor(actions.NewRegistry())
	job := newJobContext(t)

	output, _, err := e.RunStep(context.Background(), Step{Run: "pwd"}, job)
	require.NoError(t, err)
	assert.Equal(t, job.Workspace+"\n", output)
}

func TestRunStepCommandFailure(t *testing.T) {
	e := NewExecutor(actions.NewRegistry())

	output, code, err := e.RunStep(context.Background(),
		Step{Run: "echo broken >&2; exit 7"}, newJobContext(t))
	require.Error(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, "broken\n", output)
}

func TestRunStepTimeout(t *testing.T) {
	e := NewExecutor(actions.NewRegistry())
	e.Timeout = 50 * time.Millisecond

	_, code, err := e.RunStep(context.Background(), Step{Run: "sleep 5"}, newJobContext(t))
	require.Error(t, err)
	assert.NotEqual(t, 0, code)
}

func TestRunStepUnknownAction(t *testing.T) {
	e := NewExecutor(actions.NewRegistry())

	_, code, err := e.RunStep(context.Background(), Step{Uses: "mystery@v1"}, newJobContext(t))
	assert.ErrorIs(t, err, actions.ErrUnknownAction)
	assert.Equal(t, 1, code)
}
