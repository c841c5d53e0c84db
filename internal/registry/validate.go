package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Validate performs a strict parity check between each action's definition
// and its Go input struct. It checks both the presence of inputs and the
// compatibility of their types, and reports all violations at once.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for actionType, def := range r.Definitions {
		handler := r.Handlers[actionType]

		if handler.InputType == nil {
			if len(def.Inputs) > 0 {
				errs = append(errs, fmt.Sprintf("action '%s': definition declares inputs, but Go handler has no input struct", actionType))
			}
			continue
		}

		declared := make(map[string]struct{}, len(def.Inputs))
		for name := range def.Inputs {
			declared[name] = struct{}{}
		}

		goInputs := make(map[string]reflect.StructField)
		inputType := handler.InputType
		for i := 0; i < inputType.NumField(); i++ {
			field := inputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("ci"), ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = field
			}
		}

		// Presence mismatches, both directions.
		for name := range goInputs {
			if _, ok := declared[name]; !ok {
				errs = append(errs, fmt.Sprintf("action '%s': Go struct has field for input '%s' which is not declared in the definition", actionType, name))
			}
		}
		for name := range declared {
			if _, ok := goInputs[name]; !ok {
				errs = append(errs, fmt.Sprintf("action '%s': definition declares input '%s' which is not found in the Go struct", actionType, name))
			}
		}

		// Type mismatches.
		for name, inputDef := range def.Inputs {
			goField, ok := goInputs[name]
			if !ok {
				continue
			}

			if inputDef.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Action input declares 'any' type, which disables static type checking.", "action", actionType, "input", name)
				continue
			}

			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("action '%s', input '%s': could not imply cty type from Go field type %s: %v", actionType, name, goField.Type, err))
				continue
			}

			if !inputDef.Type.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("action '%s', input '%s': type mismatch. Definition requires '%s' but Go field '%s' provides '%s'",
					actionType, name, inputDef.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
