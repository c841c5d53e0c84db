package executor

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/forgeci/internal/condition"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/dag"
	"github.com/vk/forgeci/internal/logstream"
	"github.com/vk/forgeci/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// shellAction is the action type `run:` steps are dispatched to.
const shellAction = "shell"

// runJob executes a job node: an ordered sequence of steps sharing one
// environment and one output scope.
func (e *Executor) runJob(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("job", node.ID)
	wf, job := node.Workflow, node.Job

	// Job-level condition: a false condition skips the whole job but still
	// releases its dependents.
	ok, err := condition.Evaluate(job.If, condition.EvalContext(e.run.Event, e.run.Labels, nil))
	if err != nil {
		return fmt.Errorf("job '%s' condition: %w", job.Name, err)
	}
	if !ok {
		logger.Info("⏭️ Job condition is false, skipping.")
		e.stream.Publish(logstream.Event{
			Kind: logstream.JobSkipped, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name,
		})
		return nil
	}

	logger.Info("▶️ Starting job")
	e.stream.Publish(logstream.Event{
		Kind: logstream.JobStarted, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name,
	})

	stepOutputs := make(map[string]cty.Value)
	for _, step := range job.Steps {
		if err := e.runStep(ctx, wf, job, step, stepOutputs); err != nil {
			e.stream.Publish(logstream.Event{
				Kind: logstream.JobFinished, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name, Error: err.Error(),
			})
			return fmt.Errorf("job '%s': %w", job.Name, err)
		}
	}

	logger.Info("✅ Finished job")
	e.stream.Publish(logstream.Event{
		Kind: logstream.JobFinished, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name,
	})
	return nil
}

// runStep executes a single step, honoring its condition, timeout, and
// continue_on_error setting. Successful action outputs are added to
// stepOutputs under the step's name.
func (e *Executor) runStep(ctx context.Context, wf *config.Workflow, job *config.Job, step *config.Step, stepOutputs map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx).With("job", job.Name, "step", step.Name)
	evalCtx := condition.EvalContext(e.run.Event, e.run.Labels, stepOutputs)

	ok, err := condition.Evaluate(step.If, evalCtx)
	if err != nil {
		return fmt.Errorf("step '%s' condition: %w", step.Name, err)
	}
	if !ok {
		logger.Info("⏭️ Step condition is false, skipping.")
		e.stream.Publish(logstream.Event{
			Kind: logstream.StepSkipped, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name, Step: step.Name,
		})
		return nil
	}

	actionType, args := e.resolveAction(step)

	input, err := e.registry.DecodeArgs(ctx, actionType, args, evalCtx)
	if err != nil {
		return fmt.Errorf("step '%s': %w", step.Name, err)
	}

	proto := logstream.Event{RunID: e.run.ID, Workflow: wf.Name, Job: job.Name, Step: step.Name}
	stdout := logstream.NewLineWriter(e.stream, proto)
	stderr := logstream.NewLineWriter(e.stream, proto)

	workDir := step.WorkDir
	if workDir == "" {
		workDir = e.run.WorkDir
	}

	execCtx := &registry.ExecContext{
		RunID:    e.run.ID,
		Workflow: wf.Name,
		Job:      job.Name,
		Step:     step.Name,
		WorkDir:  workDir,
		Env:      mergeEnviron(e.run.BaseEnv, wf.Env, job.Env, step.Env),
		Stdout:   stdout,
		Stderr:   stderr,
	}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	logger.Info("▶️ Starting step")
	e.stream.Publish(logstream.Event{
		Kind: logstream.StepStarted, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name, Step: step.Name,
	})

	output, invokeErr := e.registry.Invoke(stepCtx, actionType, execCtx, input)
	stdout.Flush()
	stderr.Flush()

	if invokeErr != nil {
		if stepCtx.Err() == context.DeadlineExceeded {
			invokeErr = fmt.Errorf("timed out after %s: %w", step.Timeout, invokeErr)
		}
		e.stream.Publish(logstream.Event{
			Kind: logstream.StepFinished, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name, Step: step.Name,
			Error: invokeErr.Error(),
		})
		if step.ContinueOnError {
			logger.Warn("Step failed but continue_on_error is set.", "error", invokeErr)
			return nil
		}
		return fmt.Errorf("step '%s': %w", step.Name, invokeErr)
	}

	logger.Info("✅ Finished step")
	e.stream.Publish(logstream.Event{
		Kind: logstream.StepFinished, RunID: e.run.ID, Workflow: wf.Name, Job: job.Name, Step: step.Name,
	})

	if len(output) > 0 {
		val, err := toCtyObject(output)
		if err != nil {
			logger.Warn("Step output is not representable; later conditions will not see it.", "error", err)
			return nil
		}
		stepOutputs[step.Name] = val
	}
	return nil
}

// resolveAction maps a step to its action type and argument expressions.
// `run:` steps become shell action invocations.
func (e *Executor) resolveAction(step *config.Step) (string, map[string]hcl.Expression) {
	if step.Uses != "" {
		return step.Uses, step.With
	}

	args := map[string]hcl.Expression{
		"command": &hclsyntax.LiteralValueExpr{Val: cty.StringVal(step.Run)},
	}
	if step.Shell != "" {
		args["shell"] = &hclsyntax.LiteralValueExpr{Val: cty.StringVal(step.Shell)}
	}
	return shellAction, args
}

// toCtyObject converts an action's native output map into a cty object for
// the step-output eval context.
func toCtyObject(output map[string]any) (cty.Value, error) {
	attrs := make(map[string]cty.Value, len(output))
	for k, v := range output {
		ty, err := gocty.ImpliedType(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("output %q: %w", k, err)
		}
		val, err := gocty.ToCtyValue(v, ty)
		if err != nil {
			return cty.NilVal, fmt.Errorf("output %q: %w", k, err)
		}
		attrs[k] = val
	}
	return cty.ObjectVal(attrs), nil
}
