// Package shell provides the action that `run:` steps dispatch to: a
// command line executed through a shell with the step's environment and
// working directory.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"reflect"

	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the shell action.
type Input struct {
	Command string `ci:"command"`
	Shell   string `ci:"shell"`
}

// Run executes the command through the shell. The -e flag makes multi-line
// commands stop at the first failing line.
func Run(ctx context.Context, ec *registry.ExecContext, input *Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running shell command.", "shell", input.Shell, "command", input.Command)

	cmd := exec.CommandContext(ctx, input.Shell, "-ec", input.Command)
	cmd.Dir = ec.WorkDir
	cmd.Env = ec.Env
	cmd.Stdout = ec.Stdout
	cmd.Stderr = ec.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("command exited with status %d", exitErr.ExitCode())
		}
		return nil, fmt.Errorf("failed to run command: %w", err)
	}

	return map[string]any{"exit_code": 0}, nil
}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	defaultShell := cty.StringVal("sh")
	r.RegisterAction(&registry.ActionDefinition{
		Type:        "shell",
		Description: "Runs a command line through a shell.",
		Inputs: map[string]*registry.InputDefinition{
			"command": {Name: "command", Type: cty.String, Description: "The command line to run."},
			"shell":   {Name: "shell", Type: cty.String, Description: "The interpreter to run the command with.", Default: &defaultShell, Optional: true},
		},
	}, &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
