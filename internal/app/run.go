package app

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/dag"
	"github.com/vk/forgeci/internal/executor"
	"github.com/vk/forgeci/internal/trigger"
	"golang.org/x/sync/errgroup"
)

// Run matches the configured event against the loaded workflows and
// executes every workflow that fires. Matched workflows run concurrently;
// jobs inside each workflow are scheduled by its own executor.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.StatusPort > 0 {
		a.startStatusServer(ctx, appConfig.StatusPort)
	}
	defer a.stream.Close()

	kind, err := trigger.ParseKind(appConfig.EventKind)
	if err != nil {
		return err
	}
	ev := trigger.Event{Kind: kind, Branch: appConfig.EventBranch}

	matched := a.matchWorkflows(ev, appConfig.Labels)
	if len(matched) == 0 {
		a.logger.Warn("No workflow matched the event, nothing to run.",
			"event", ev.Kind, "branch", ev.Branch, "labels", appConfig.Labels)
		return nil
	}

	a.logger.Info("🚀 Starting workflow execution...", "event", ev.Kind, "branch", ev.Branch, "workflows", len(matched))

	baseEnv := os.Environ()
	group, groupCtx := errgroup.WithContext(ctx)
	for _, wf := range matched {
		group.Go(func() error {
			return a.runWorkflow(groupCtx, wf, ev, appConfig, baseEnv)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	a.logger.Info("🏁 Execution finished.")
	return nil
}

// matchWorkflows returns the workflows whose triggers fire for the event
// and whose runner requirements this runner's labels satisfy.
func (a *App) matchWorkflows(ev trigger.Event, labels []string) []*config.Workflow {
	var matched []*config.Workflow
	for _, wf := range a.config.Workflows {
		if !trigger.Matches(wf, ev) {
			a.logger.Debug("Workflow trigger did not match.", "workflow", wf.Name)
			continue
		}
		if !trigger.RunnerEligible(wf, labels) {
			a.logger.Warn("Workflow matched but this runner lacks the required labels.",
				"workflow", wf.Name, "runs_on", wf.RunsOn, "labels", labels)
			continue
		}
		matched = append(matched, wf)
	}
	return matched
}

func (a *App) runWorkflow(ctx context.Context, wf *config.Workflow, ev trigger.Event, appConfig *Config, baseEnv []string) error {
	runID := uuid.NewString()
	logger := a.logger.With("workflow", wf.Name, "run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	logger.Debug("Building job graph for workflow.")
	graph, err := dag.Build(ctx, wf)
	if err != nil {
		return fmt.Errorf("failed to build job graph for workflow '%s': %w", wf.Name, err)
	}
	logger.Debug("Job graph built.", "node_count", len(graph.Nodes))

	exec := executor.New(graph, appConfig.WorkerCount, a.registry, a.stream, executor.RunInfo{
		ID:      runID,
		Event:   ev,
		Labels:  appConfig.Labels,
		WorkDir: appConfig.WorkDir,
		BaseEnv: baseEnv,
	})
	return exec.Run(ctx)
}
