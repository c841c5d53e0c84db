package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/testutil"
)

func TestRun_FailingStepFailsFastAndSkipsDependents(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				step "compile" {
					run = "cargo build --locked"
				}
				step "explode" {
					run = "exit 1"
				}
				step "after-explosion" {
					run = "echo never reached"
				}
			}

			job "test" {
				needs = ["build"]
				step "test" {
					run = "cargo test"
				}
			}

			job "bench" {
				needs = ["test"]
				step "bench" {
					run = "cargo bench"
				}
			}
		}
	`
	files := map[string]string{"ci.hcl": workflowHCL}
	spy := &testutil.SpyShellModule{FailOn: "exit 1"}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, spy)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "execution failed")
	assert.Contains(t, result.Err.Error(), "job.ci.build")

	assert.True(t, spy.Ran("cargo build"), "step before the failure should have run")
	assert.False(t, spy.Ran("echo never reached"), "steps after a failing step must not run")
	assert.False(t, spy.Ran("cargo test"), "dependent job must be skipped")
	assert.False(t, spy.Ran("cargo bench"), "transitively dependent job must be skipped")

	assert.Contains(t, result.LogOutput, "Skipping dependent job due to upstream failure.")
}

func TestRun_IndependentJobsAllRun(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push {}
			}

			job "fmt" {
				step "fmt" {
					run = "cargo fmt --all -- --check"
				}
			}

			job "lint" {
				step "clippy" {
					run = "cargo clippy -- -D warnings"
				}
			}
		}
	`
	files := map[string]string{"ci.hcl": workflowHCL}
	spy := &testutil.SpyShellModule{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, spy)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.True(t, spy.Ran("cargo fmt"))
	assert.True(t, spy.Ran("cargo clippy"))
	assert.Contains(t, result.LogOutput, "🏁 Execution finished.")
}
