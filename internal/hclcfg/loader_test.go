package hclcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/config"
)

func writeWorkflowFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ci.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FullWorkflow(t *testing.T) {
	path := writeWorkflowFile(t, `
workflow "ci" {
  on {
    push         { branches = ["main"] }
    pull_request { branches = ["main"] }
  }

  runs_on = ["self-hosted", "macos"]

  env = {
    SCCACHE_CACHE_SIZE = "10G"
  }

  job "build" {
    step "checkout" {
      uses = "checkout"
      with {
        submodules = true
      }
    }

    step "fmt" {
      run = "cargo fmt --all -- --check"
    }

    step "clippy" {
      run     = "cargo clippy -- -D warnings"
      timeout = "30m"
    }
  }

  job "bench" {
    needs = ["build"]
    if    = event.kind == "push"

    step "bench" {
      run = "cargo test -p runtime --features runtime-benchmarks"
    }
  }
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, config.Validate(model))
	require.Len(t, model.Workflows, 1)

	wf := model.Workflows[0]
	assert.Equal(t, "ci", wf.Name)
	assert.Equal(t, path, wf.Source)
	assert.Equal(t, []string{"self-hosted", "macos"}, wf.RunsOn)
	assert.Equal(t, "10G", wf.Env["SCCACHE_CACHE_SIZE"])

	require.NotNil(t, wf.On)
	require.NotNil(t, wf.On.Push)
	require.NotNil(t, wf.On.PullRequest)
	assert.Equal(t, []string{"main"}, wf.On.Push.Branches)

	require.Len(t, wf.Jobs, 2)
	build := wf.Jobs[0]
	assert.Equal(t, "build", build.Name)
	require.Len(t, build.Steps, 3)

	checkout := build.Steps[0]
	assert.Equal(t, "checkout", checkout.Uses)
	require.Contains(t, checkout.With, "submodules")

	clippy := build.Steps[2]
	assert.Equal(t, 30*time.Minute, clippy.Timeout)

	bench := wf.Jobs[1]
	assert.Equal(t, []string{"build"}, bench.Needs)
	assert.NotNil(t, bench.If, "job condition should survive translation")
	assert.Nil(t, build.If, "absent condition should be nil")
}

func TestLoad_InvalidSyntaxIsRejected(t *testing.T) {
	path := writeWorkflowFile(t, `workflow "ci" { job "x" { step "y" {`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	path := writeWorkflowFile(t, `
workflow "ci" {
  job "build" {
    step "slow" {
      run     = "true"
      timeout = "half an hour"
    }
  }
}
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestLoad_NestedBlockInWithIsRejected(t *testing.T) {
	path := writeWorkflowFile(t, `
workflow "ci" {
  job "build" {
    step "checkout" {
      uses = "checkout"
      with {
        repository = "https://example.com/repo.git"
        options {
          depth = 1
        }
      }
    }
  }
}
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid 'with' block")
	assert.Contains(t, err.Error(), `step "checkout"`)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".hcl"}, NewLoader().Extensions())
}
