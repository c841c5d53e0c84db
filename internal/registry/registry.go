package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all action modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// ActionDefinition describes an action type's public surface: its name and
// its typed inputs.
type ActionDefinition struct {
	Type        string
	Description string
	Inputs      map[string]*InputDefinition
}

// InputDefinition defines a single input argument for an action.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// RegisteredAction holds the compiled Go parts of an action.
type RegisteredAction struct {
	// NewInput allocates the handler's input struct; nil means the action
	// takes no arguments.
	NewInput func() any
	// InputType is the (non-pointer) type of the input struct, used for
	// startup parity validation.
	InputType reflect.Type
	// Fn is the handler: func(ctx, *ExecContext, *Input) (map[string]any, error).
	Fn any
}

// ExecContext carries the per-step execution environment into an action
// handler.
type ExecContext struct {
	RunID    string
	Workflow string
	Job      string
	Step     string
	// WorkDir is the step's working directory.
	WorkDir string
	// Env is the fully layered environment in "KEY=VALUE" form.
	Env []string
	// Stdout and Stderr receive the step's output; the executor wires them
	// into the run's log stream.
	Stdout io.Writer
	Stderr io.Writer
}

// Registry holds all registered action definitions and handlers for a
// single application instance.
type Registry struct {
	Definitions map[string]*ActionDefinition
	Handlers    map[string]*RegisteredAction
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		Definitions: make(map[string]*ActionDefinition),
		Handlers:    make(map[string]*RegisteredAction),
	}
}

// RegisterAction registers an action type's definition and handler.
// Registering the same type twice is a programmer error and panics.
func (r *Registry) RegisterAction(def *ActionDefinition, handler *RegisteredAction) {
	if _, exists := r.Definitions[def.Type]; exists {
		panic(fmt.Sprintf("action type '%s' already registered", def.Type))
	}
	slog.Debug("Registering action.", "type", def.Type)
	r.Definitions[def.Type] = def
	r.Handlers[def.Type] = handler
}

// Invoke calls the registered handler for an action type with the given
// execution context and decoded input struct.
func (r *Registry) Invoke(ctx context.Context, actionType string, ec *ExecContext, input any) (map[string]any, error) {
	handler, ok := r.Handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("unknown action type '%s'", actionType)
	}

	handlerFunc := reflect.ValueOf(handler.Fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(ec)}
	if input == nil {
		callArgs = append(callArgs, reflect.Zero(handlerFunc.Type().In(2)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(input))
	}

	results := handlerFunc.Call(callArgs)
	output, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return nil, errResult.(error)
	}
	if output == nil {
		return nil, nil
	}
	return output.(map[string]any), nil
}
