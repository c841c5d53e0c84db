package dag

import (
	"context"
	"fmt"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
)

// NodeID returns the graph identifier of a job.
func NodeID(workflow, job string) string {
	return fmt.Sprintf("job.%s.%s", workflow, job)
}

// Build constructs a complete, validated dependency graph for one workflow.
func Build(ctx context.Context, wf *config.Workflow) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "workflow", wf.Name)
	graph := &Graph{Nodes: make(map[string]*Node)}

	// First pass: create all job nodes.
	for _, job := range wf.Jobs {
		id := NodeID(wf.Name, job.Name)
		if _, exists := graph.Nodes[id]; exists {
			return nil, fmt.Errorf("duplicate job '%s' in workflow '%s'", job.Name, wf.Name)
		}
		graph.Nodes[id] = &Node{
			ID:         id,
			Workflow:   wf,
			Job:        job,
			Deps:       make(map[string]*Node),
			Dependents: make(map[string]*Node),
		}
	}
	logger.Debug("Build: Node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link `needs` dependencies.
	for _, node := range graph.Nodes {
		for _, need := range node.Job.Needs {
			depID := NodeID(wf.Name, need)
			depNode, ok := graph.Nodes[depID]
			if !ok {
				return nil, fmt.Errorf("job '%s' needs non-existent job '%s'", node.Job.Name, need)
			}
			if depNode == node {
				return nil, fmt.Errorf("job '%s' cannot need itself", node.Job.Name)
			}
			if _, exists := node.Deps[depID]; !exists {
				logger.Debug("Linking job dependency.", "from", node.ID, "to", depID)
				node.Deps[depID] = depNode
				depNode.Dependents[node.ID] = node
			}
		}
	}
	logger.Debug("Build: Node linking complete.")

	// Third pass: initialize counters.
	for _, node := range graph.Nodes {
		node.InitCounters()
	}

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Graph construction successful.")

	return graph, nil
}

// detectCycles checks the graph for cycles using a classic depth-first
// search with permanent and temporary marks.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil
		}
		if temporary[n.ID] {
			return fmt.Errorf("cycle detected involving node '%s'", n.ID)
		}

		temporary[n.ID] = true
		for _, dependent := range n.Dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID)
		permanent[n.ID] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
