// Package core implements the pipeline runner: it parses workflow
// definitions, gates them on trigger events, and executes their jobs in
// dependency order with artifact hand-off between jobs.
package core

import "strconv"

// Workflow is the entire pipeline definition loaded from YAML.
type Workflow struct {
	Name string         `yaml:"name"`
	On   Trigger        `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Trigger is the condition gating workflow execution.
type Trigger struct {
	Push PushTrigger `yaml:"push"`
}

// PushTrigger matches push events by literal branch name. No wildcard or
// pattern semantics: a branch matches only by exact equality.
type PushTrigger struct {
	Branches []string `yaml:"branches"`
}

// Job is an independently scheduled unit with ordered steps. A job with
// Needs set starts only after the named upstream job succeeded, and
// receives that job's artifact.
type Job struct {
	RunsOn      string            `yaml:"runs-on"`
	Needs       string            `yaml:"needs,omitempty"`
	Permissions map[string]string `yaml:"permissions,omitempty"`
	Environment string            `yaml:"environment,omitempty"`
	Steps       []Step            `yaml:"steps"`
}

// Step is one action or command within a job: exactly one of Uses (a
// pinned external action reference with optional inputs) or Run (an
// inline shell command) must be set.
type Step struct {
	Name string            `yaml:"name,omitempty"`
	ID   string            `yaml:"id,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
}

// Label names a step for results and logs.
func (s Step) Label(index int) string {
	switch {
	case s.Name != "":
		return s.Name
	case s.ID != "":
		return s.ID
	case s.Uses != "":
		return s.Uses
	default:
		return "step-" + strconv.Itoa(index+1)
	}
}
