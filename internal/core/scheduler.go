package core

import (
	"fmt"
	"sort"
)

// Scheduler decides the execution order of a workflow's jobs. Dependency
// edges come from each job's needs field; jobs with no path between them
// are ordered by name so the schedule is deterministic.
type Scheduler struct{}

// NewScheduler creates a new scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Order returns job names such that every job appears after the job it
// needs. It fails on unknown references and dependency cycles.
func (s *Scheduler) Order(wf *Workflow) ([]string, error) {
	names := make([]string, 0, len(wf.Jobs))
	for name := range wf.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	// dependents[a] lists jobs that need a; indegree counts unmet needs.
	dependents := make(map[string][]string, len(names))
	indegree := make(map[string]int, len(names))
	for _, name := range names {
		job := wf.Jobs[name]
		if job.Needs == "" {
			continue
		}
		if _, ok := wf.Jobs[job.Needs]; !ok {
			return nil, fmt.Errorf("job %q needs unknown job %q", name, job.Needs)
		}
		dependents[job.Needs] = append(dependents[job.Needs], name)
		indegree[name]++
	}

	var ready []string
	for _, name := range names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(names))
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(names) {
		return nil, fmt.Errorf("workflow %q has a dependency cycle", wf.Name)
	}
	return order, nil
}
