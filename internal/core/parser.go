package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseWorkflow parses YAML content into a validated Workflow.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	if err := Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// LoadWorkflow reads a workflow definition file and parses it.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWorkflow(data)
}

// Validate checks the structural rules a workflow must satisfy before it
// can be scheduled.
func Validate(wf *Workflow) error {
	if wf.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if len(wf.Jobs) == 0 {
		return fmt.Errorf("workflow %q has no jobs", wf.Name)
	}

	for name, job := range wf.Jobs {
		if job.RunsOn == "" {
			return fmt.Errorf("job %q: runs-on is required", name)
		}
		if len(job.Steps) == 0 {
			return fmt.Errorf("job %q has no steps", name)
		}
		if job.Needs != "" {
			if _, ok := wf.Jobs[job.Needs]; !ok {
				return fmt.Errorf("job %q needs unknown job %q", name, job.Needs)
			}
			if job.Needs == name {
				return fmt.Errorf("job %q cannot need itself", name)
			}
		}
		for i, step := range job.Steps {
			if err := validateStep(name, i, step); err != nil {
				return err
			}
		}
	}

	// Dependency edges must form a schedulable order.
	if _, err := NewScheduler().Order(wf); err != nil {
		return err
	}
	return nil
}

func validateStep(job string, index int, step Step) error {
	label := step.Label(index)
	if step.Uses != "" && step.Run != "" {
		return fmt.Errorf("job %q step %q: uses and run are mutually exclusive", job, label)
	}
	if step.Uses == "" && step.Run == "" {
		return fmt.Errorf("job %q step %q: one of uses or run is required", job, label)
	}
	if step.Uses != "" && !strings.Contains(step.Uses, "@") {
		return fmt.Errorf("job %q step %q: action reference %q must be pinned as name@version", job, label, step.Uses)
	}
	if step.Run != "" && len(step.With) > 0 {
		return fmt.Errorf("job %q step %q: with is only valid on uses steps", job, label)
	}
	return nil
}
