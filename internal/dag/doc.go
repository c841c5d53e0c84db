// Package dag builds the directed acyclic graph of a workflow's jobs.
//
// Each node is one job; `needs` entries become edges. The graph carries the
// per-node state and counters the executor relies on to release dependent
// jobs and to propagate skips after a failure.
package dag
