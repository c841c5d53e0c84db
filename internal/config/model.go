package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of all loaded
// workflow definitions.
type Model struct {
	Workflows []*Workflow
}

// Workflow is a single named workflow: the events that trigger it, the
// runner labels it requires, its environment, and its jobs.
type Workflow struct {
	Name string
	// On declares which events trigger this workflow. A workflow with a nil
	// trigger set can only be started by a manual event.
	On *TriggerSet
	// RunsOn lists the runner labels this workflow requires, e.g.
	// ["self-hosted", "macos"]. Empty means any runner.
	RunsOn []string
	Env    map[string]string
	Jobs   []*Job
	// Source is the file the workflow was loaded from, for diagnostics.
	Source string
}

// TriggerSet holds the per-event-kind filters of a workflow's `on` block.
type TriggerSet struct {
	Push        *EventFilter
	PullRequest *EventFilter
}

// EventFilter narrows an event kind to particular branches. An empty
// Branches list matches every branch.
type EventFilter struct {
	Branches []string
}

// Job is a named group of sequential steps. Jobs within a workflow form a
// dependency graph through Needs.
type Job struct {
	Name string
	// Needs lists names of jobs in the same workflow that must complete
	// successfully before this job starts.
	Needs []string
	Env   map[string]string
	// If is an optional condition expression; a job whose condition
	// evaluates to false is skipped together with its steps.
	If    hcl.Expression
	Steps []*Step
}

// Step is a single unit of work inside a job. Exactly one of Run or Uses is
// set: Run is a shell command line, Uses names a registered action type.
type Step struct {
	Name string
	Run  string
	Uses string
	// With holds the action's arguments as unevaluated expressions. They are
	// evaluated against the run's event context when the step executes.
	With map[string]hcl.Expression
	Env  map[string]string
	If   hcl.Expression
	// Timeout bounds the step's execution. Zero means no step-level bound.
	Timeout time.Duration
	// ContinueOnError keeps the job running when this step fails.
	ContinueOnError bool
	WorkDir         string
	// Shell overrides the command interpreter for Run steps.
	Shell string
}

// FindJob returns the job with the given name, or nil.
func (w *Workflow) FindJob(name string) *Job {
	for _, j := range w.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// MergeEnv layers environment maps left to right: keys in later maps
// override earlier ones. Nil maps are skipped. The result is a fresh map.
func MergeEnv(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}
