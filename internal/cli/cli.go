package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/forgeci/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("forgeci", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
ForgeCI - A self-hosted, declarative workflow runner.

Usage:
  forgeci [options] [WORKFLOW_PATH]

Arguments:
  WORKFLOW_PATH
    Path to a workflow file or a directory containing workflow files
    (.hcl, .yml or .yaml).

Options:
`)
		flagSet.PrintDefaults()
	}

	workflowsFlag := flagSet.String("workflows", "", "Path to the workflow file or directory.")
	wFlag := flagSet.String("w", "", "Path to the workflow file or directory (shorthand).")
	eventFlag := flagSet.String("event", "push", "Event to dispatch. Options: 'push', 'pull_request' or 'manual'.")
	branchFlag := flagSet.String("branch", "main", "Branch the event concerns.")
	labelsFlag := flagSet.String("labels", "self-hosted", "Comma-separated labels this runner advertises.")
	workdirFlag := flagSet.String("workdir", ".", "Working directory steps execute in.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent job workers per workflow.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *workflowsFlag != "" {
		path = *workflowsFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Workflow path determined.", "path", path)

	if path == "" {
		slog.Debug("No workflow path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	event := strings.ToLower(*eventFlag)
	switch event {
	case "push", "pull_request", "manual":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid event: must be 'push', 'pull_request', or 'manual'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkflowPath: path,
		EventKind:    event,
		EventBranch:  *branchFlag,
		Labels:       splitLabels(*labelsFlag),
		WorkDir:      *workdirFlag,
		StatusPort:   *statusPortFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		WorkerCount:  *workersFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// splitLabels turns a comma-separated label list into a slice, dropping
// empty entries so a trailing comma is harmless.
func splitLabels(s string) []string {
	var labels []string
	for _, label := range strings.Split(s, ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
