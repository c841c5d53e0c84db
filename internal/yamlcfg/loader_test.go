package yamlcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/condition"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/trigger"
	"github.com/zclconf/go-cty/cty"
)

func writeWorkflowFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ci.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FullWorkflow(t *testing.T) {
	path := writeWorkflowFile(t, `
name: ci
on:
  push:
    branches: [main]
  pull_request:
    branches: [main]
runs_on: [self-hosted, macos]
env:
  SCCACHE_CACHE_SIZE: 10G
jobs:
  - name: build
    steps:
      - name: checkout
        uses: checkout
        with:
          submodules: true
          depth: 1
      - name: fmt
        run: cargo fmt --all -- --check
        timeout: 10m
  - name: bench
    needs: [build]
    if: event.kind == "push"
    steps:
      - name: bench
        run: cargo test -p runtime --features runtime-benchmarks
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, config.Validate(model))
	require.Len(t, model.Workflows, 1)

	wf := model.Workflows[0]
	assert.Equal(t, "ci", wf.Name)
	assert.Equal(t, []string{"self-hosted", "macos"}, wf.RunsOn)
	assert.Equal(t, "10G", wf.Env["SCCACHE_CACHE_SIZE"])
	require.NotNil(t, wf.On)
	assert.Equal(t, []string{"main"}, wf.On.Push.Branches)
	assert.Equal(t, []string{"main"}, wf.On.PullRequest.Branches)

	require.Len(t, wf.Jobs, 2)
	build := wf.Jobs[0]
	require.Len(t, build.Steps, 2)

	checkout := build.Steps[0]
	require.Contains(t, checkout.With, "submodules")
	val, diags := checkout.With["submodules"].Value(nil)
	require.False(t, diags.HasErrors())
	assert.Equal(t, cty.True, val)

	depth, diags := checkout.With["depth"].Value(nil)
	require.False(t, diags.HasErrors())
	assert.True(t, cty.NumberIntVal(1).RawEquals(depth))

	assert.Equal(t, 10*time.Minute, build.Steps[1].Timeout)

	bench := wf.Jobs[1]
	require.NotNil(t, bench.If)
	ok, err := condition.Evaluate(bench.If, condition.EvalContext(trigger.Event{Kind: trigger.Push}, nil, nil))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoad_StringWithIsTemplate(t *testing.T) {
	path := writeWorkflowFile(t, `
name: ci
jobs:
  - name: build
    steps:
      - name: greet
        uses: shell
        with:
          command: echo ${event.branch}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	expr := model.Workflows[0].Jobs[0].Steps[0].With["command"]
	evalCtx := condition.EvalContext(trigger.Event{Kind: trigger.Push, Branch: "main"}, nil, nil)
	val, diags := expr.Value(evalCtx)
	require.False(t, diags.HasErrors())
	assert.Equal(t, "echo main", val.AsString())
}

func TestLoad_MissingNameIsRejected(t *testing.T) {
	path := writeWorkflowFile(t, `
jobs:
  - name: build
    steps:
      - name: x
        run: "true"
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'name' is required")
}

func TestLoad_InvalidCondition(t *testing.T) {
	path := writeWorkflowFile(t, `
name: ci
jobs:
  - name: build
    if: 'event.kind =='
    steps:
      - name: x
        run: "true"
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid condition")
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".yml", ".yaml"}, NewLoader().Extensions())
}
