// Package executor orchestrates one workflow run: it drains the job graph
// with a bounded worker pool, runs each job's steps in order, fails fast on
// the first real error, and publishes progress to the run's log stream.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/dag"
	"github.com/vk/forgeci/internal/logstream"
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/trigger"
)

// RunInfo identifies and parameterizes a single workflow run.
type RunInfo struct {
	ID      string
	Event   trigger.Event
	Labels  []string
	WorkDir string
	// BaseEnv is the runner process environment in "KEY=VALUE" form; the
	// workflow, job, and step env layers are applied on top of it.
	BaseEnv []string
}

// Executor drives one workflow's job graph to completion.
type Executor struct {
	Graph *dag.Graph

	numWorkers int
	registry   *registry.Registry
	stream     *logstream.Broker
	run        RunInfo
	wg         sync.WaitGroup
}

// New creates an executor for a built graph.
func New(graph *dag.Graph, workers int, reg *registry.Registry, stream *logstream.Broker, run RunInfo) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		Graph:      graph,
		numWorkers: workers,
		registry:   reg,
		stream:     stream,
		run:        run,
	}
}

// Run executes the entire graph concurrently and returns an error if any
// job fails. It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	workflow := ""
	if len(e.Graph.Nodes) > 0 {
		for _, n := range e.Graph.Nodes {
			workflow = n.Workflow.Name
			break
		}
	}
	e.stream.Publish(logstream.Event{Kind: logstream.RunStarted, RunID: e.run.ID, Workflow: workflow})

	readyChan := make(chan *dag.Node, len(e.Graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding root nodes...")
	rootNodeCount := 0
	for _, node := range e.Graph.Nodes {
		if len(node.Deps) == 0 {
			logger.Debug("Found root node.", "nodeID", node.ID)
			readyChan <- node
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.Graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	logger.Info("Waiting for all jobs to complete...")
	e.wg.Wait()
	logger.Info("All jobs completed.")
	close(readyChan)

	var failedNodes []string
	var rootCauseError error
	for _, node := range e.Graph.Nodes {
		if node.GetState() == dag.Failed {
			logger.Error("Job failed execution.", "nodeID", node.ID, "error", node.Error)
			// A "skipped" error is a symptom, not a cause.
			if node.Error != nil && !strings.HasPrefix(node.Error.Error(), "skipped") && !errors.Is(node.Error, context.Canceled) {
				failedNodes = append(failedNodes, node.ID)
				if rootCauseError == nil {
					rootCauseError = node.Error
				}
			}
		}
	}

	if rootCauseError != nil {
		err := fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
		e.stream.Publish(logstream.Event{Kind: logstream.RunFinished, RunID: e.run.ID, Workflow: workflow, Error: err.Error()})
		return err
	}

	e.stream.Publish(logstream.Event{Kind: logstream.RunFinished, RunID: e.run.ID, Workflow: workflow})
	return nil
}

// skipDependents recursively marks all downstream nodes as failed and
// decrements the WaitGroup.
func (e *Executor) skipDependents(ctx context.Context, node *dag.Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		dep := dependent
		dep.Skip(func() {
			logger.Warn("Skipping dependent job due to upstream failure.", "nodeID", dep.ID, "dependency", node.ID)
			dep.SetState(dag.Failed)
			dep.Error = fmt.Errorf("skipped due to upstream failure of '%s'", node.ID)
			e.stream.Publish(logstream.Event{
				Kind:     logstream.JobSkipped,
				RunID:    e.run.ID,
				Workflow: dep.Workflow.Name,
				Job:      dep.Job.Name,
				Error:    dep.Error.Error(),
			})
			e.wg.Done()
			e.skipDependents(ctx, dep)
		})
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for node := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", node.ID)

		if ctx.Err() != nil {
			n := node
			n.Skip(func() {
				workerLogger.Warn("Context canceled, skipping job execution.")
				n.SetState(dag.Failed)
				n.Error = ctx.Err()
				e.wg.Done()
			})
			// Its dependents will never be enqueued, so release them too.
			e.skipDependents(ctx, node)
			continue
		}

		workerLogger.Debug("Worker picked up job for execution.")
		node.SetState(dag.Running)
		err := e.runJob(ctx, node)

		if err != nil {
			workerLogger.Error("Job execution failed.", "error", err)
			node.SetState(dag.Failed)
			node.Error = err
			cancel()
			e.skipDependents(ctx, node)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Job execution succeeded.")
		node.SetState(dag.Done)

		for _, dependent := range node.Dependents {
			if dependent.DecrementDeps() == 0 {
				workerLogger.Debug("Unlocking dependent job.", "dependentID", dependent.ID)
				readyChan <- dependent
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
