// Package yamlcfg loads workflow definitions from YAML files into the
// format-agnostic config model. One file holds one workflow.
//
// YAML workflows are semantically identical to HCL ones: `with:` values
// become literal expressions, string values are parsed as HCL templates so
// `${...}` interpolation behaves the same in both formats, and `if:`
// strings are parsed as HCL expressions.
package yamlcfg

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/forgeci/internal/condition"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string {
	return []string{".yml", ".yaml"}
}

// --- YAML schema structs ---

type file struct {
	Name   string            `yaml:"name"`
	On     *triggerSet       `yaml:"on"`
	RunsOn []string          `yaml:"runs_on"`
	Env    map[string]string `yaml:"env"`
	Jobs   []*job            `yaml:"jobs"`
}

type triggerSet struct {
	Push        *eventFilter `yaml:"push"`
	PullRequest *eventFilter `yaml:"pull_request"`
}

type eventFilter struct {
	Branches []string `yaml:"branches"`
}

type job struct {
	Name  string            `yaml:"name"`
	Needs []string          `yaml:"needs"`
	Env   map[string]string `yaml:"env"`
	If    string            `yaml:"if"`
	Steps []*step           `yaml:"steps"`
}

type step struct {
	Name            string            `yaml:"name"`
	Run             string            `yaml:"run"`
	Uses            string            `yaml:"uses"`
	With            map[string]any    `yaml:"with"`
	Env             map[string]string `yaml:"env"`
	If              string            `yaml:"if"`
	Timeout         string            `yaml:"timeout"`
	ContinueOnError bool              `yaml:"continue_on_error"`
	WorkDir         string            `yaml:"workdir"`
	Shell           string            `yaml:"shell"`
}

// Load parses and translates the given workflow files.
func (l *Loader) Load(ctx context.Context, files ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{}

	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow file %s: %w", path, err)
		}

		var f file
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", path, err)
		}
		if f.Name == "" {
			return nil, fmt.Errorf("workflow file %s: 'name' is required", path)
		}

		wf, err := l.translateWorkflow(&f, path)
		if err != nil {
			return nil, fmt.Errorf("workflow %q in %s: %w", f.Name, path, err)
		}
		model.Workflows = append(model.Workflows, wf)
		logger.Debug("Loaded workflow definition from YAML file.", "file", path, "workflow", f.Name)
	}

	return model, nil
}

func (l *Loader) translateWorkflow(f *file, source string) (*config.Workflow, error) {
	wf := &config.Workflow{
		Name:   f.Name,
		RunsOn: f.RunsOn,
		Env:    f.Env,
		Source: source,
	}
	if f.On != nil {
		wf.On = &config.TriggerSet{}
		if f.On.Push != nil {
			wf.On.Push = &config.EventFilter{Branches: f.On.Push.Branches}
		}
		if f.On.PullRequest != nil {
			wf.On.PullRequest = &config.EventFilter{Branches: f.On.PullRequest.Branches}
		}
	}

	for _, j := range f.Jobs {
		translated, err := l.translateJob(j, source)
		if err != nil {
			return nil, err
		}
		wf.Jobs = append(wf.Jobs, translated)
	}
	return wf, nil
}

func (l *Loader) translateJob(j *job, source string) (*config.Job, error) {
	out := &config.Job{
		Name:  j.Name,
		Needs: j.Needs,
		Env:   j.Env,
	}
	if j.If != "" {
		expr, err := condition.Parse(j.If, source)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		out.If = expr
	}

	for _, s := range j.Steps {
		step, err := l.translateStep(s, source)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}

func (l *Loader) translateStep(s *step, source string) (*config.Step, error) {
	out := &config.Step{
		Name:            s.Name,
		Run:             s.Run,
		Uses:            s.Uses,
		Env:             s.Env,
		ContinueOnError: s.ContinueOnError,
		WorkDir:         s.WorkDir,
		Shell:           s.Shell,
	}

	if s.If != "" {
		expr, err := condition.Parse(s.If, source)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Name, err)
		}
		out.If = expr
	}

	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid timeout %q: %w", s.Name, s.Timeout, err)
		}
		out.Timeout = d
	}

	if len(s.With) > 0 {
		out.With = make(map[string]hcl.Expression, len(s.With))
		for name, val := range s.With {
			expr, err := expressionFromYAML(val, source)
			if err != nil {
				return nil, fmt.Errorf("step %q: argument %q: %w", s.Name, name, err)
			}
			out.With[name] = expr
		}
	}

	return out, nil
}
