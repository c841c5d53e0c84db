package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PositionalWorkflowPath(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"workflows/"}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "workflows/", cfg.WorkflowPath)
	assert.Equal(t, "push", cfg.EventKind)
	assert.Equal(t, "main", cfg.EventBranch)
	assert.Equal(t, []string{"self-hosted"}, cfg.Labels)
}

func TestParse_FlagsOverrideDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{
		"-w", "ci.hcl",
		"-event", "pull_request",
		"-branch", "feature/x",
		"-labels", "self-hosted,macos,",
		"-workers", "8",
		"-status-port", "8080",
		"-log-format", "text",
		"-log-level", "debug",
	}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "ci.hcl", cfg.WorkflowPath)
	assert.Equal(t, "pull_request", cfg.EventKind)
	assert.Equal(t, "feature/x", cfg.EventBranch)
	assert.Equal(t, []string{"self-hosted", "macos"}, cfg.Labels)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 8080, cfg.StatusPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidEvent(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-event", "cron", "ci.hcl"}, &out)
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid event")
}

func TestParse_InvalidLogFormat(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-format", "xml", "ci.hcl"}, &out)
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_HelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}
