package integration_tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/testutil"
)

const singleFileHCL = `
	workflow "ci" {
		on {
			push {}
		}
		job "build" {
			step "build" {
				run = "cargo build"
			}
		}
	}
`

const singleFileYAML = `
name: ci
on:
  push: {}
jobs:
  - name: build
    steps:
      - name: build
        run: cargo build
`

func TestRun_SingleHCLFileAsWorkflowPath(t *testing.T) {
	// Pointing the runner at one file, not a directory, must not feed that
	// file to the YAML loader.
	files := map[string]string{"ci.hcl": singleFileHCL}
	spy := &testutil.SpyShellModule{}

	result := testutil.RunIntegrationTestWithOptions(context.Background(), t, files, testutil.Options{
		WorkflowFile: "ci.hcl",
	}, spy)

	require.NoError(t, result.Err)
	assert.True(t, spy.Ran("cargo build"))
}

func TestRun_SingleYAMLFileAsWorkflowPath(t *testing.T) {
	files := map[string]string{"ci.yml": singleFileYAML}
	spy := &testutil.SpyShellModule{}

	result := testutil.RunIntegrationTestWithOptions(context.Background(), t, files, testutil.Options{
		WorkflowFile: "ci.yml",
	}, spy)

	require.NoError(t, result.Err)
	assert.True(t, spy.Ran("cargo build"))
}

func TestRun_SingleFileNextToOtherFormatsLoadsOnlyThatFile(t *testing.T) {
	// A sibling workflow of the other format must be ignored when the path
	// names one file.
	files := map[string]string{
		"ci.hcl":    singleFileHCL,
		"other.yml": singleFileYAML, // same workflow name; loading both would fail validation
	}
	spy := &testutil.SpyShellModule{}

	result := testutil.RunIntegrationTestWithOptions(context.Background(), t, files, testutil.Options{
		WorkflowFile: "ci.hcl",
	}, spy)

	require.NoError(t, result.Err)
	require.Len(t, spy.Commands(), 1)
}

func TestRun_EmptyWorkflowDirIsStartupError(t *testing.T) {
	files := map[string]string{"notes.txt": "not a workflow"}

	result := testutil.RunIntegrationTest(t, files)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "no workflow files found")
}
