// Package toolchain provides the action that installs a compiler
// toolchain through an installer such as rustup, including extra
// components and cross-compilation targets.
package toolchain

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

// Input defines the arguments for the toolchain action.
type Input struct {
	Channel    string   `ci:"channel"`
	Installer  string   `ci:"installer"`
	Components []string `ci:"components"`
	Targets    []string `ci:"targets"`
}

// Run installs the requested toolchain channel, then adds the listed
// components and targets to it.
func Run(ctx context.Context, ec *registry.ExecContext, input *Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Installing toolchain.", "installer", input.Installer, "channel", input.Channel)

	if err := runInstaller(ctx, ec, input.Installer, "toolchain", "install", input.Channel); err != nil {
		return nil, err
	}
	for _, component := range input.Components {
		if err := runInstaller(ctx, ec, input.Installer, "component", "add", component, "--toolchain", input.Channel); err != nil {
			return nil, err
		}
	}
	for _, target := range input.Targets {
		if err := runInstaller(ctx, ec, input.Installer, "target", "add", target, "--toolchain", input.Channel); err != nil {
			return nil, err
		}
	}

	return map[string]any{"channel": input.Channel}, nil
}

func runInstaller(ctx context.Context, ec *registry.ExecContext, installer string, args ...string) error {
	cmd := exec.CommandContext(ctx, installer, args...)
	cmd.Dir = ec.WorkDir
	cmd.Env = ec.Env
	cmd.Stdout = ec.Stdout
	cmd.Stderr = ec.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", installer, args[0], err)
	}
	return nil
}

// Register registers the action with the engine.
func (m *Module) Register(r *registry.Registry) {
	defaultInstaller := cty.StringVal("rustup")
	noStrings := cty.ListValEmpty(cty.String)
	r.RegisterAction(&registry.ActionDefinition{
		Type:        "toolchain",
		Description: "Installs a compiler toolchain with optional components and targets.",
		Inputs: map[string]*registry.InputDefinition{
			"channel":    {Name: "channel", Type: cty.String, Description: "The toolchain channel to install, e.g. a dated nightly."},
			"installer":  {Name: "installer", Type: cty.String, Description: "The installer binary to invoke.", Default: &defaultInstaller, Optional: true},
			"components": {Name: "components", Type: cty.List(cty.String), Description: "Extra components to add to the toolchain.", Default: &noStrings, Optional: true},
			"targets":    {Name: "targets", Type: cty.List(cty.String), Description: "Extra compilation targets to add to the toolchain.", Default: &noStrings, Optional: true},
		},
	}, &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
