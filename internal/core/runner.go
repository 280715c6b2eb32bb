package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pagesci/internal/actions"
	"pagesci/internal/artifact"
	"pagesci/internal/history"
	"pagesci/internal/pages"
	"pagesci/internal/provenance"
	"pagesci/internal/storage"
)

// Runner ties together scheduler, executor, log storage, run history and
// the deployment target.
type Runner struct {
	Scheduler *Scheduler
	Executor  *Executor

	Logs    *storage.LogStore
	History *history.History
	Site    *pages.Site
	Signer  *provenance.Signer

	// WorkDir is where per-run workspaces are created; empty means the
	// system temp directory.
	WorkDir string
}

// RunnerConfig carries the collaborators a Runner needs.
type RunnerConfig struct {
	Registry *actions.Registry
	Logs     *storage.LogStore
	History  *history.History
	Site     *pages.Site
	Signer   *provenance.Signer
	WorkDir  string
}

// NewRunner builds a runner. Only the registry is mandatory; logs,
// history, site and signer are optional collaborators.
func NewRunner(cfg RunnerConfig) *Runner {
	registry := cfg.Registry
	if registry == nil {
		registry = actions.Default()
	}
	return &Runner{
		Scheduler: NewScheduler(),
		Executor:  NewExecutor(registry),
		Logs:      cfg.Logs,
		History:   cfg.History,
		Site:      cfg.Site,
		Signer:    cfg.Signer,
		WorkDir:   cfg.WorkDir,
	}
}

// RunPipeline evaluates the trigger and, if it matches, executes the
// workflow's jobs in dependency order. A trigger mismatch is a no-op with
// terminal status Skipped, not an error. Job failures are reported in the
// result; the returned error is reserved for infrastructure problems.
func (r *Runner) RunPipeline(ctx context.Context, wf *Workflow, ev Event) (*PipelineResult, error) {
	return r.RunPipelineWithID(ctx, uuid.NewString(), wf, ev)
}

// RunPipelineWithID is RunPipeline with a caller-chosen run id, so servers
// can hand out the id before the run completes.
func (r *Runner) RunPipelineWithID(ctx context.Context, runID string, wf *Workflow, ev Event) (*PipelineResult, error) {
	state := NewRunState(wf)
	result := &PipelineResult{
		RunID:    runID,
		Workflow: wf.Name,
	}

	if !MatchTrigger(wf.On, ev) {
		if err := state.Transition(RunSkipped); err != nil {
			return nil, err
		}
		result.Status = RunSkipped
		slog.Info("trigger did not match, skipping run",
			"workflow", wf.Name, "event", ev.Type, "branch", ev.Branch)
		return result, nil
	}

	order, err := r.Scheduler.Order(wf)
	if err != nil {
		return nil, err
	}
	if err := state.Transition(RunRunning); err != nil {
		return nil, err
	}
	slog.Info("run triggered", "runId", result.RunID, "workflow", wf.Name,
		"branch", ev.Branch, "commit", ev.Commit, "jobs", len(order))

	runDir, err := os.MkdirTemp(r.WorkDir, "run-*")
	if err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	defer os.RemoveAll(runDir)
	artifactDir := filepath.Join(runDir, "artifacts")

	artifacts := make(map[string]*artifact.Bundle, len(order))
	failed := false

	for _, name := range order {
		job := wf.Jobs[name]

		// Once anything failed, or the upstream did not succeed, the job
		// never starts.
		if failed || (job.Needs != "" && state.JobStatus(job.Needs) != JobSucceeded) {
			if err := state.TransitionJob(name, JobSkipped); err != nil {
				return nil, err
			}
			result.Jobs = append(result.Jobs, JobResult{Job: name, Status: JobSkipped})
			slog.Info("job skipped", "runId", result.RunID, "job", name)
			continue
		}

		if err := state.TransitionJob(name, JobRunning); err != nil {
			return nil, err
		}
		slog.Info("job started", "runId", result.RunID, "job", name,
			"runsOn", job.RunsOn, "environment", job.Environment)

		jr := r.RunJob(ctx, result.RunID, name, job, ev, artifacts[job.Needs], artifactDir)
		if err := state.TransitionJob(name, jr.Status); err != nil {
			return nil, err
		}
		result.Jobs = append(result.Jobs, jr)

		if jr.Status == JobFailed {
			failed = true
			result.FailedJob = name
			slog.Error("job failed", "runId", result.RunID, "job", name,
				"step", jr.FailedStep, "exitCode", jr.ExitCode)
			continue
		}

		if jr.Artifact != nil {
			artifacts[name] = jr.Artifact
		}
		if url := jr.Outputs["page_url"]; url != "" {
			result.PageURL = url
		}
		slog.Info("job succeeded", "runId", result.RunID, "job", name)
	}

	final := RunSucceeded
	if failed {
		final = RunFailed
	}
	if err := state.Transition(final); err != nil {
		return nil, err
	}
	result.Status = final

	r.recordRun(result, ev)
	slog.Info("run finished", "runId", result.RunID, "status", result.Status, "pageUrl", result.PageURL)
	return result, nil
}

// RunJob executes a job's steps strictly in order in a fresh workspace,
// stopping at the first failure. The inbound bundle is the upstream job's
// artifact, if any.
func (r *Runner) RunJob(ctx context.Context, runID, name string, job Job, ev Event, inbound *artifact.Bundle, artifactDir string) JobResult {
	result := JobResult{Job: name}

	workspace, err := os.MkdirTemp(r.WorkDir, "job-"+name+"-*")
	if err != nil {
		result.Status = JobFailed
		result.FailedStep = "workspace"
		result.ExitCode = 1
		result.Steps = append(result.Steps, StepResult{Step: "workspace", ExitCode: 1, Error: err.Error()})
		return result
	}
	defer os.RemoveAll(workspace)

	jobCtx := &actions.Context{
		Workspace:   workspace,
		ArtifactDir: artifactDir,
		RepoPath:    ev.RepoPath,
		Branch:      ev.Branch,
		Commit:      ev.Commit,
		Inbound:     inbound,
		Permissions: job.Permissions,
		Outputs:     make(map[string]string),
		Site:        r.Site,
		Signer:      r.Signer,
	}

	for i, step := range job.Steps {
		label := step.Label(i)
		slog.Debug("running step", "runId", runID, "job", name, "step", label)

		output, code, err := r.Executor.RunStep(ctx, step, jobCtx)

		sr := StepResult{Step: label, ExitCode: code, Output: output}
		if err != nil {
			sr.Error = err.Error()
		}
		result.Steps = append(result.Steps, sr)

		if r.Logs != nil {
			if _, logErr := r.Logs.SaveStepLog(runID, name, i, label, output); logErr != nil {
				slog.Warn("could not save step log", "runId", runID, "job", name, "step", label, "error", logErr)
			}
		}

		if err != nil {
			result.Status = JobFailed
			result.FailedStep = label
			result.ExitCode = code
			return result
		}
	}

	result.Status = JobSucceeded
	result.Artifact = jobCtx.Produced
	result.Outputs = jobCtx.Outputs
	return result
}

// recordRun appends the run to the tamper-evident history. Best effort:
// history problems never fail a pipeline.
func (r *Runner) recordRun(result *PipelineResult, ev Event) {
	if r.History == nil || r.Signer == nil {
		return
	}

	var artifactDigest string
	for _, jr := range result.Jobs {
		if jr.Artifact != nil {
			artifactDigest = jr.Artifact.Manifest.Digest
		}
	}

	rec, err := history.NewRecord(
		r.History.NextIndex(),
		result.RunID, result.Workflow, ev.Branch, ev.Commit,
		string(result.Status), artifactDigest, result.PageURL,
		r.History.LastHash(),
	)
	if err != nil {
		slog.Warn("could not create history record", "runId", result.RunID, "error", err)
		return
	}
	if err := r.History.Append(rec, r.Signer.Private(), r.Signer.Public()); err != nil {
		slog.Warn("could not append history record", "runId", result.RunID, "error", err)
	}
}
