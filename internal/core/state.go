package core

import (
	"fmt"
	"sync"
)

// RunStatus is the pipeline-level state. A run is created Pending, moves
// to Skipped or Running once the trigger is evaluated, and ends in
// Succeeded or Failed. Skipped, Succeeded and Failed are terminal.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunSkipped   RunStatus = "skipped"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunSkipped || s == RunSucceeded || s == RunFailed
}

// JobStatus is the per-job state within a run. A job whose upstream did
// not succeed is Skipped and never starts.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobSkipped   JobStatus = "skipped"
)

var runTransitions = map[RunStatus][]RunStatus{
	RunPending: {RunSkipped, RunRunning},
	RunRunning: {RunSucceeded, RunFailed},
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobPending: {JobRunning, JobSkipped},
	JobRunning: {JobSucceeded, JobFailed},
}

// RunState tracks one pipeline run and enforces legal transitions.
type RunState struct {
	mu     sync.Mutex
	status RunStatus
	jobs   map[string]JobStatus
}

// NewRunState creates the state for one run with every job Pending.
func NewRunState(wf *Workflow) *RunState {
	jobs := make(map[string]JobStatus, len(wf.Jobs))
	for name := range wf.Jobs {
		jobs[name] = JobPending
	}
	return &RunState{status: RunPending, jobs: jobs}
}

// Status returns the current run status.
func (st *RunState) Status() RunStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.status
}

// JobStatus returns the current status of a job.
func (st *RunState) JobStatus(name string) JobStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.jobs[name]
}

// Transition moves the run to a new status, rejecting illegal moves.
func (st *RunState) Transition(to RunStatus) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, allowed := range runTransitions[st.status] {
		if allowed == to {
			st.status = to
			return nil
		}
	}
	return fmt.Errorf("illegal run transition %s -> %s", st.status, to)
}

// TransitionJob moves a job to a new status, rejecting illegal moves.
func (st *RunState) TransitionJob(name string, to JobStatus) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	from, ok := st.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	for _, allowed := range jobTransitions[from] {
		if allowed == to {
			st.jobs[name] = to
			return nil
		}
	}
	return fmt.Errorf("job %q: illegal transition %s -> %s", name, from, to)
}

// JobStatuses returns a copy of the per-job state.
func (st *RunState) JobStatuses() map[string]JobStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := make(map[string]JobStatus, len(st.jobs))
	for k, v := range st.jobs {
		cp[k] = v
	}
	return cp
}
