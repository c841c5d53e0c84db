package dag

import (
	"sync"
	"sync/atomic"

	"github.com/vk/forgeci/internal/config"
)

// State describes a node's position in its lifecycle.
type State int32

const (
	Pending State = iota
	Running
	Done
	Failed
)

// Graph is a collection of job nodes and their dependency links.
type Graph struct {
	// Nodes stores all nodes in the graph, keyed by their unique ID.
	Nodes map[string]*Node
}

// Node represents a single job within a workflow run.
type Node struct {
	// ID is the unique identifier, "job.<workflow>.<job>".
	ID string
	// Workflow and Job point into the config model.
	Workflow *config.Workflow
	Job      *config.Job
	// Deps holds the nodes this node depends on (predecessors).
	Deps map[string]*Node
	// Dependents holds the nodes that depend on this node (successors).
	Dependents map[string]*Node
	// Error records why the node failed or was skipped.
	Error error

	state    atomic.Int32
	depCount atomic.Int32
	skipOnce sync.Once
}

// InitCounters snapshots the dependency count. It must be called once per
// node after linking and before execution.
func (n *Node) InitCounters() {
	n.depCount.Store(int32(len(n.Deps)))
}

// DecrementDeps atomically releases one dependency and returns the number
// still outstanding.
func (n *Node) DecrementDeps() int32 {
	return n.depCount.Add(-1)
}

// SetState records the node's lifecycle state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// GetState reads the node's lifecycle state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// Skip runs fn at most once for this node, guarding the executor's skip
// bookkeeping against double-counting.
func (n *Node) Skip(fn func()) {
	n.skipOnce.Do(fn)
}
