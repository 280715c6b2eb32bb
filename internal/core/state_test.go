package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoJobWorkflow() *Workflow {
	return &Workflow{
		Name: "docs",
		On:   Trigger{Push: PushTrigger{Branches: []string{"main"}}},
		Jobs: map[string]Job{
			"build":  {RunsOn: "x", Steps: []Step{{Run: "true"}}},
			"deploy": {RunsOn: "x", Needs: "build", Steps: []Step{{Uses: "deploy-pages@v4"}}},
		},
	}
}

func TestRunStateHappyPath(t *testing.T) {
	st := NewRunState(twoJobWorkflow())
	assert.Equal(t, RunPending, st.Status())
	assert.Equal(t, JobPending, st.JobStatus("build"))

	require.NoError(t, st.Transition(RunRunning))
	require.NoError(t, st.TransitionJob("build", JobRunning))
	require.NoError(t, st.TransitionJob("build", JobSucceeded))
	require.NoError(t, st.TransitionJob("deploy", JobRunning))
	require.NoError(t, st.TransitionJob("deploy", JobSucceeded))
	require.NoError(t, st.Transition(RunSucceeded))

	assert.True(t, st.Status().Terminal())
}

func TestRunStateSkipIsTerminal(t *testing.T) {
	st := NewRunState(twoJobWorkflow())
	require.NoError(t, st.Transition(RunSkipped))

	assert.True(t, st.Status().Terminal())
	assert.Error(t, st.Transition(RunRunning))
	assert.Error(t, st.Transition(RunSucceeded))
}

func TestRunStateRejectsIllegalTransitions(t *testing.T) {
	st := NewRunState(twoJobWorkflow())

	// Straight to a terminal result without running.
	assert.Error(t, st.Transition(RunSucceeded))
	assert.Error(t, st.Transition(RunFailed))

	// Jobs cannot finish before they start.
	assert.Error(t, st.TransitionJob("build", JobSucceeded))
	assert.Error(t, st.TransitionJob("build", JobFailed))

	require.NoError(t, st.Transition(RunRunning))
	require.NoError(t, st.TransitionJob("build", JobRunning))
	require.NoError(t, st.TransitionJob("build", JobFailed))

	// Failed is terminal for the job.
	assert.Error(t, st.TransitionJob("build", JobRunning))

	// Unknown job.
	assert.Error(t, st.TransitionJob("nope", JobRunning))
}

func TestRunStateJobStatuses(t *testing.T) {
	st := NewRunState(twoJobWorkflow())
	require.NoError(t, st.Transition(RunRunning))
	require.NoError(t, st.TransitionJob("build", JobRunning))

	snap := st.JobStatuses()
	assert.Equal(t, JobRunning, snap["build"])
	assert.Equal(t, JobPending, snap["deploy"])

	// Snapshot is a copy.
	snap["build"] = JobFailed
	assert.Equal(t, JobRunning, st.JobStatus("build"))
}
