package core

import "pagesci/internal/artifact"

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step     string `json:"step"`
	ExitCode int    `json:"exitCode"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// JobResult is the outcome of one job: its final status, the identity of
// the failing step if any, and the artifact it produced if any.
type JobResult struct {
	Job        string            `json:"job"`
	Status     JobStatus         `json:"status"`
	FailedStep string            `json:"failedStep,omitempty"`
	ExitCode   int               `json:"exitCode"`
	Steps      []StepResult      `json:"steps,omitempty"`
	Outputs    map[string]string `json:"outputs,omitempty"`

	Artifact *artifact.Bundle `json:"-"`
}

// PipelineResult is the terminal outcome of one run.
type PipelineResult struct {
	RunID     string      `json:"runId"`
	Workflow  string      `json:"workflow"`
	Status    RunStatus   `json:"status"`
	FailedJob string      `json:"failedJob,omitempty"`
	Jobs      []JobResult `json:"jobs,omitempty"`
	PageURL   string      `json:"pageUrl,omitempty"`
}

// Succeeded reports terminal success.
func (r *PipelineResult) Succeeded() bool { return r.Status == RunSucceeded }

// Skipped reports that the trigger did not match and nothing ran.
func (r *PipelineResult) Skipped() bool { return r.Status == RunSkipped }
