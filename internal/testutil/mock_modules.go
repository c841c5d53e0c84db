package testutil

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/vk/forgeci/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// SpyCommand records one invocation of the spy shell action.
type SpyCommand struct {
	Workflow string
	Job      string
	Step     string
	Command  string
	Env      []string
}

// SpyShellModule registers a mock "shell" action that records every command
// instead of executing it. FailOn makes any command containing the substring
// fail, which lets tests exercise failure propagation without a real shell.
type SpyShellModule struct {
	FailOn string

	mu       sync.Mutex
	commands []SpyCommand
}

// Commands returns a copy of the recorded invocations.
func (m *SpyShellModule) Commands() []SpyCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SpyCommand(nil), m.commands...)
}

// Ran reports whether any recorded command contains the substring.
func (m *SpyShellModule) Ran(substring string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.commands {
		if strings.Contains(c.Command, substring) {
			return true
		}
	}
	return false
}

// Register registers the mock "shell" action.
func (m *SpyShellModule) Register(r *registry.Registry) {
	type shellInput struct {
		Command string `ci:"command"`
		Shell   string `ci:"shell"`
	}

	defaultShell := cty.StringVal("sh")
	r.RegisterAction(&registry.ActionDefinition{
		Type:        "shell",
		Description: "Records commands instead of executing them.",
		Inputs: map[string]*registry.InputDefinition{
			"command": {Name: "command", Type: cty.String},
			"shell":   {Name: "shell", Type: cty.String, Default: &defaultShell, Optional: true},
		},
	}, &registry.RegisteredAction{
		NewInput:  func() any { return new(shellInput) },
		InputType: reflect.TypeOf(shellInput{}),
		Fn: func(ctx context.Context, ec *registry.ExecContext, input *shellInput) (map[string]any, error) {
			m.mu.Lock()
			m.commands = append(m.commands, SpyCommand{
				Workflow: ec.Workflow,
				Job:      ec.Job,
				Step:     ec.Step,
				Command:  input.Command,
				Env:      ec.Env,
			})
			m.mu.Unlock()

			if m.FailOn != "" && strings.Contains(input.Command, m.FailOn) {
				return nil, fmt.Errorf("command %q failed as instructed", input.Command)
			}
			return map[string]any{"exit_code": 0}, nil
		},
	})
}

// OutputModule registers an argument-less action that returns a fixed output
// map, for tests that wire step outputs into later conditions or arguments.
type OutputModule struct {
	ActionType string
	Output     map[string]any
}

// Register registers the fixed-output action.
func (m *OutputModule) Register(r *registry.Registry) {
	r.RegisterAction(&registry.ActionDefinition{
		Type:        m.ActionType,
		Description: "Returns a fixed output map.",
		Inputs:      map[string]*registry.InputDefinition{},
	}, &registry.RegisteredAction{
		Fn: func(ctx context.Context, ec *registry.ExecContext, _ *struct{}) (map[string]any, error) {
			return m.Output, nil
		},
	})
}
