package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/forgeci/internal/app"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/hclcfg"
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/yamlcfg"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// Options shapes the event and runner the harness simulates. Zero values
// fall back to a push to main on a self-hosted runner.
type Options struct {
	EventKind   string
	EventBranch string
	Labels      []string
	Workers     int
	// WorkflowFile, when set, points the app at that single file from the
	// files map instead of the whole workflows directory.
	WorkflowFile string
}

func (o *Options) withDefaults() {
	if o.EventKind == "" {
		o.EventKind = "push"
	}
	if o.EventBranch == "" {
		o.EventBranch = "main"
	}
	if o.Labels == nil {
		o.Labels = []string{"self-hosted"}
	}
	if o.Workers == 0 {
		o.Workers = 4
	}
}

// RunIntegrationTest provides a standardized harness for running integration
// tests: a push to main on a self-hosted runner.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithOptions(context.Background(), t, files, Options{}, modules...)
}

// RunIntegrationTestWithOptions provides a standardized harness for running
// integration tests with a caller-controlled event, labels and context.
func RunIntegrationTestWithOptions(ctx context.Context, t *testing.T, files map[string]string, opts Options, modules ...registry.Module) *HarnessResult {
	t.Helper()
	opts.withDefaults()

	// 1. Create a temporary root directory for the test.
	tmpDir, err := os.MkdirTemp("", ".tmp-integration-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	workflowsDir := filepath.Join(tmpDir, "workflows")
	workDir := filepath.Join(tmpDir, "work")
	require.NoError(t, os.Mkdir(workflowsDir, 0755))
	require.NoError(t, os.Mkdir(workDir, 0755))

	// 2. Write all workflow files to the temporary directory. The test
	//    provides paths relative to the workflows dir.
	for name, content := range files {
		filePath := filepath.Join(workflowsDir, name)
		dir := filepath.Dir(filePath)
		require.NoError(t, os.MkdirAll(dir, 0755))
		err = os.WriteFile(filePath, []byte(content), 0644)
		require.NoError(t, err)
	}

	workflowPath := workflowsDir
	if opts.WorkflowFile != "" {
		workflowPath = filepath.Join(workflowsDir, opts.WorkflowFile)
	}

	appConfig := &app.Config{
		WorkflowPath: workflowPath,
		EventKind:    opts.EventKind,
		EventBranch:  opts.EventBranch,
		Labels:       opts.Labels,
		WorkDir:      workDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  opts.Workers,
	}

	logBuffer := &SafeBuffer{}
	loaders := []config.Loader{hclcfg.NewLoader(), yamlcfg.NewLoader()}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, loaders, modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			App:       nil,
		}
	}

	runErr := testApp.Run(ctx, appConfig)

	if os.Getenv("FORGECI_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
