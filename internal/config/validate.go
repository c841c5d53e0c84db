package config

import (
	"fmt"
	"strings"
)

// Validate performs structural checks on a merged model: unique workflow,
// job, and step names, `needs` targets that exist, and steps declaring
// exactly one of `run` or `uses`. All violations are reported at once.
func Validate(m *Model) error {
	var errs []string

	workflowNames := make(map[string]string)
	for _, wf := range m.Workflows {
		if prev, dup := workflowNames[wf.Name]; dup {
			errs = append(errs, fmt.Sprintf("workflow %q defined in both %s and %s", wf.Name, prev, wf.Source))
		}
		workflowNames[wf.Name] = wf.Source

		jobNames := make(map[string]struct{}, len(wf.Jobs))
		for _, job := range wf.Jobs {
			if _, dup := jobNames[job.Name]; dup {
				errs = append(errs, fmt.Sprintf("workflow %q: duplicate job %q", wf.Name, job.Name))
			}
			jobNames[job.Name] = struct{}{}
		}

		for _, job := range wf.Jobs {
			for _, need := range job.Needs {
				if wf.FindJob(need) == nil {
					errs = append(errs, fmt.Sprintf("workflow %q: job %q needs unknown job %q", wf.Name, job.Name, need))
				}
			}

			if len(job.Steps) == 0 {
				errs = append(errs, fmt.Sprintf("workflow %q: job %q has no steps", wf.Name, job.Name))
			}

			stepNames := make(map[string]struct{}, len(job.Steps))
			for _, step := range job.Steps {
				if _, dup := stepNames[step.Name]; dup {
					errs = append(errs, fmt.Sprintf("workflow %q, job %q: duplicate step %q", wf.Name, job.Name, step.Name))
				}
				stepNames[step.Name] = struct{}{}

				switch {
				case step.Run != "" && step.Uses != "":
					errs = append(errs, fmt.Sprintf("workflow %q, job %q, step %q: 'run' and 'uses' are mutually exclusive", wf.Name, job.Name, step.Name))
				case step.Run == "" && step.Uses == "":
					errs = append(errs, fmt.Sprintf("workflow %q, job %q, step %q: one of 'run' or 'uses' is required", wf.Name, job.Name, step.Name))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("workflow validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
