// Package trigger defines the event model and decides which workflows an
// event starts on a given runner.
package trigger

import (
	"fmt"
	"path"

	"github.com/vk/forgeci/internal/config"
)

// Kind identifies the version-control event that started a run.
type Kind string

const (
	// Push is a direct push to a branch.
	Push Kind = "push"
	// PullRequest is a pull request targeting a branch.
	PullRequest Kind = "pull_request"
	// Manual is an operator-initiated run; it matches every workflow.
	Manual Kind = "manual"
)

// ParseKind validates a string event kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Push, PullRequest, Manual:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown event kind %q: must be 'push', 'pull_request', or 'manual'", s)
}

// Event is a single occurrence a runner reacts to.
type Event struct {
	Kind Kind
	// Branch is the pushed branch, or the target branch of a pull request.
	Branch string
}

// Matches reports whether the event triggers the workflow.
func Matches(wf *config.Workflow, ev Event) bool {
	if ev.Kind == Manual {
		return true
	}
	if wf.On == nil {
		return false
	}

	var filter *config.EventFilter
	switch ev.Kind {
	case Push:
		filter = wf.On.Push
	case PullRequest:
		filter = wf.On.PullRequest
	}
	if filter == nil {
		return false
	}

	return branchMatches(filter.Branches, ev.Branch)
}

// branchMatches checks the branch against a list of glob patterns. An empty
// pattern list matches every branch.
func branchMatches(patterns []string, branch string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// RunnerEligible reports whether a runner carrying the given labels may
// execute the workflow. Every label in the workflow's runs_on list must be
// present; a workflow with no runs_on runs anywhere.
func RunnerEligible(wf *config.Workflow, labels []string) bool {
	if len(wf.RunsOn) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		have[l] = struct{}{}
	}
	for _, required := range wf.RunsOn {
		if _, ok := have[required]; !ok {
			return false
		}
	}
	return true
}
