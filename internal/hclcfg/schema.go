package hclcfg

import "github.com/hashicorp/hcl/v2"

// --- HCL schema structs, decoded with gohcl ---

// File is the top-level structure of a workflow file.
type File struct {
	Workflows []*Workflow `hcl:"workflow,block"`
}

// Workflow represents a `workflow "<name>" {}` block.
type Workflow struct {
	Name   string            `hcl:"name,label"`
	On     *TriggerSet       `hcl:"on,block"`
	RunsOn []string          `hcl:"runs_on,optional"`
	Env    map[string]string `hcl:"env,optional"`
	Jobs   []*Job            `hcl:"job,block"`
}

// TriggerSet represents the `on {}` block.
type TriggerSet struct {
	Push        *EventFilter `hcl:"push,block"`
	PullRequest *EventFilter `hcl:"pull_request,block"`
}

// EventFilter represents a `push {}` or `pull_request {}` block.
type EventFilter struct {
	Branches []string `hcl:"branches,optional"`
}

// Job represents a `job "<name>" {}` block.
type Job struct {
	Name  string            `hcl:"name,label"`
	Needs []string          `hcl:"needs,optional"`
	Env   map[string]string `hcl:"env,optional"`
	If    hcl.Expression    `hcl:"if,optional"`
	Steps []*Step           `hcl:"step,block"`
}

// Step represents a `step "<name>" {}` block.
type Step struct {
	Name            string            `hcl:"name,label"`
	Run             string            `hcl:"run,optional"`
	Uses            string            `hcl:"uses,optional"`
	With            *WithBlock        `hcl:"with,block"`
	Env             map[string]string `hcl:"env,optional"`
	If              hcl.Expression    `hcl:"if,optional"`
	Timeout         string            `hcl:"timeout,optional"`
	ContinueOnError bool              `hcl:"continue_on_error,optional"`
	WorkDir         string            `hcl:"workdir,optional"`
	Shell           string            `hcl:"shell,optional"`
}

// WithBlock holds the raw body of a step's `with {}` block. Its attributes
// stay unevaluated until the step executes.
type WithBlock struct {
	Body hcl.Body `hcl:",remain"`
}
