package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeArgs evaluates a step's `with` expressions against the evaluation
// context, applies defaults, and populates the action's input struct. The
// returned value is ready to pass to Invoke. Unknown argument names are an
// error.
func (r *Registry) DecodeArgs(
	ctx context.Context,
	actionType string,
	args map[string]hcl.Expression,
	evalCtx *hcl.EvalContext,
) (any, error) {
	logger := ctxlog.FromContext(ctx)

	def, ok := r.Definitions[actionType]
	if !ok {
		return nil, fmt.Errorf("unknown action type '%s'", actionType)
	}
	handler := r.Handlers[actionType]

	for name := range args {
		if _, declared := def.Inputs[name]; !declared {
			return nil, fmt.Errorf("action '%s' does not accept argument %q", actionType, name)
		}
	}

	if handler.NewInput == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("action '%s' takes no arguments", actionType)
		}
		return nil, nil
	}

	inputStruct := handler.NewInput()
	structVal := reflect.ValueOf(inputStruct).Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		tagName := strings.Split(field.Tag.Get("ci"), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}

		inputDef, declared := def.Inputs[tagName]
		if !declared {
			continue
		}

		argExpr, provided := args[tagName]
		switch {
		case provided:
			val, diags := argExpr.Value(evalCtx)
			if diags.HasErrors() {
				return nil, fmt.Errorf("evaluating argument %q: %w", tagName, diags)
			}
			if err := assign(val, inputDef.Type, fieldVal); err != nil {
				return nil, fmt.Errorf("argument %q: %w", tagName, err)
			}
		case inputDef.Default != nil:
			if err := assign(*inputDef.Default, inputDef.Type, fieldVal); err != nil {
				return nil, fmt.Errorf("default for %q: %w", tagName, err)
			}
		case !inputDef.Optional:
			return nil, fmt.Errorf("missing required argument %q for action '%s'", tagName, actionType)
		}
	}

	logger.Debug("Decoded action arguments.", "action", actionType)
	return inputStruct, nil
}

// assign converts a cty value to the declared input type and stores it in
// the target struct field via gocty.
func assign(val cty.Value, want cty.Type, fieldVal reflect.Value) error {
	if want != cty.NilType && !want.Equals(cty.DynamicPseudoType) {
		converted, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
		}
		val = converted
	}
	return gocty.FromCtyValue(val, fieldVal.Addr().Interface())
}
