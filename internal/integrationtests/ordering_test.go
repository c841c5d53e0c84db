package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/testutil"
)

func TestRun_NeedsOrderJobsAndStepsSequenceWithinJob(t *testing.T) {
	// --- Arrange ---
	workflowHCL := `
		workflow "ci" {
			on {
				push {}
			}

			job "prepare" {
				step "checkout" {
					run = "git checkout"
				}
				step "toolchain" {
					run = "rustup install"
				}
			}

			job "build" {
				needs = ["prepare"]
				step "build" {
					run = "cargo build"
				}
			}

			job "test" {
				needs = ["build"]
				step "test" {
					run = "cargo test"
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

	commands := spy.Commands()
	require.Len(t, commands, 4)

	var order []string
	for _, c := range commands {
		order = append(order, c.Command)
	}
	assert.Equal(t, []string{"git checkout", "rustup install", "cargo build", "cargo test"}, order,
		"needs edges and step order inside a job must be preserved")
}
