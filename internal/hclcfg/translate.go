package hclcfg

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/forgeci/internal/config"
)

// translateWorkflow converts the HCL-specific workflow schema into the
// agnostic model.
func (l *Loader) translateWorkflow(s *Workflow, source string) (*config.Workflow, error) {
	wf := &config.Workflow{
		Name:   s.Name,
		RunsOn: s.RunsOn,
		Env:    s.Env,
		Source: source,
	}
	if s.On != nil {
		wf.On = &config.TriggerSet{}
		if s.On.Push != nil {
			wf.On.Push = &config.EventFilter{Branches: s.On.Push.Branches}
		}
		if s.On.PullRequest != nil {
			wf.On.PullRequest = &config.EventFilter{Branches: s.On.PullRequest.Branches}
		}
	}

	for _, j := range s.Jobs {
		job, err := l.translateJob(j)
		if err != nil {
			return nil, err
		}
		wf.Jobs = append(wf.Jobs, job)
	}
	return wf, nil
}

func (l *Loader) translateJob(s *Job) (*config.Job, error) {
	job := &config.Job{
		Name:  s.Name,
		Needs: s.Needs,
		Env:   s.Env,
		If:    normalizeExpr(s.If),
	}
	for _, st := range s.Steps {
		step, err := l.translateStep(st)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", s.Name, err)
		}
		job.Steps = append(job.Steps, step)
	}
	return job, nil
}

func (l *Loader) translateStep(s *Step) (*config.Step, error) {
	with, err := extractBodyAttributes(s.With)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", s.Name, err)
	}
	step := &config.Step{
		Name:            s.Name,
		Run:             s.Run,
		Uses:            s.Uses,
		With:            with,
		Env:             s.Env,
		If:              normalizeExpr(s.If),
		ContinueOnError: s.ContinueOnError,
		WorkDir:         s.WorkDir,
		Shell:           s.Shell,
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid timeout %q: %w", s.Name, s.Timeout, err)
		}
		step.Timeout = d
	}
	return step, nil
}

// extractBodyAttributes pulls the unevaluated attribute expressions out of a
// `with {}` block body. Anything other than plain attributes, such as a
// nested block, is a load error.
func extractBodyAttributes(block *WithBlock) (map[string]hcl.Expression, error) {
	if block == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid 'with' block: %w", diags)
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}

// normalizeExpr maps the "attribute was absent" expression gohcl produces
// to nil, so downstream code can treat nil as "no condition".
func normalizeExpr(expr hcl.Expression) hcl.Expression {
	if expr == nil {
		return nil
	}
	if v, diags := expr.Value(nil); !diags.HasErrors() && v.IsNull() {
		return nil
	}
	return expr
}
