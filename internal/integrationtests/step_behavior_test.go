package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/testutil"
)

// sleeperModule registers an action that blocks until its context ends.
type sleeperModule struct{}

func (m *sleeperModule) Register(r *registry.Registry) {
	r.RegisterAction(&registry.ActionDefinition{
		Type:        "sleep",
		Description: "Blocks until canceled.",
		Inputs:      map[string]*registry.InputDefinition{},
	}, &registry.RegisteredAction{
		Fn: func(ctx context.Context, ec *registry.ExecContext, _ *struct{}) (map[string]any, error) {
			select {
			case <-time.After(10 * time.Second):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
}

func TestRun_ContinueOnErrorKeepsJobAlive(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push {}
			}

			job "build" {
				step "flaky" {
					run               = "exit 1"
					continue_on_error = true
				}
				step "build" {
					run = "cargo build"
				}
			}
		}
	`
	files := map[string]string{"ci.hcl": workflowHCL}
	spy := &testutil.SpyShellModule{FailOn: "exit 1"}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, spy)

	// --- Assert ---
	require.NoError(t, result.Err, "continue_on_error turns a step failure into a warning")
	assert.True(t, spy.Ran("cargo build"))
	assert.Contains(t, result.LogOutput, "continue_on_error is set")
}

func TestRun_StepTimeoutFailsTheJob(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push {}
			}

			job "build" {
				step "hang" {
					uses    = "sleep"
					timeout = "100ms"
				}
			}
		}
	`
	files := map[string]string{"ci.hcl": workflowHCL}
	spy := &testutil.SpyShellModule{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, spy, &sleeperModule{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "timed out after 100ms")
}

func TestRun_StepOutputsFeedLaterConditions(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push {}
			}

			job "build" {
				step "probe" {
					uses = "cache-probe"
				}
				step "warm" {
					run = "sccache --start-server"
					if  = steps.probe.output.cached == "miss"
				}
				step "skip-warm" {
					run = "echo cache warm"
					if  = steps.probe.output.cached == "hit"
				}
			}
		}
	`
	files := map[string]string{"ci.hcl": workflowHCL}
	spy := &testutil.SpyShellModule{}
	probe := &testutil.OutputModule{
		ActionType: "cache-probe",
		Output:     map[string]any{"cached": "miss"},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, spy, probe)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.True(t, spy.Ran("sccache --start-server"))
	assert.False(t, spy.Ran("echo cache warm"))
}

func TestRun_StepOutputsAsActionArguments(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push {}
			}

			job "build" {
				step "probe" {
					uses = "cache-probe"
				}
				step "report" {
					uses = "shell"
					with {
						command = "echo cache was ${steps.probe.output.cached}"
					}
				}
			}
		}
	`
	files := map[string]string{"ci.hcl": workflowHCL}
	spy := &testutil.SpyShellModule{}
	probe := &testutil.OutputModule{
		ActionType: "cache-probe",
		Output:     map[string]any{"cached": "hit"},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, spy, probe)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Len(t, spy.Commands(), 1)
	assert.Equal(t, "echo cache was hit", spy.Commands()[0].Command)
}
