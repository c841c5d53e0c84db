// Package condition parses and evaluates the `if` expressions of jobs and
// steps, and builds the evaluation context shared with action arguments.
package condition

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/forgeci/internal/trigger"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions is the function set available to condition and argument
// expressions.
var functions = map[string]function.Function{
	"contains": stdlib.ContainsFunc,
	"length":   stdlib.LengthFunc,
	"upper":    stdlib.UpperFunc,
	"lower":    stdlib.LowerFunc,
	"format":   stdlib.FormatFunc,
}

// Parse turns a condition string into an HCL expression. The filename is
// used only for diagnostics.
func Parse(src, filename string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid condition %q: %w", src, diags)
	}
	return expr, nil
}

// EvalContext builds the variable scope for condition and argument
// expressions: the triggering event, the runner's labels, and the outputs
// of previously completed steps in the same job.
func EvalContext(ev trigger.Event, labels []string, stepOutputs map[string]cty.Value) *hcl.EvalContext {
	labelVals := make([]cty.Value, 0, len(labels))
	for _, l := range labels {
		labelVals = append(labelVals, cty.StringVal(l))
	}
	labelList := cty.ListValEmpty(cty.String)
	if len(labelVals) > 0 {
		labelList = cty.ListVal(labelVals)
	}

	vars := map[string]cty.Value{
		"event": cty.ObjectVal(map[string]cty.Value{
			"kind":   cty.StringVal(string(ev.Kind)),
			"branch": cty.StringVal(ev.Branch),
		}),
		"runner": cty.ObjectVal(map[string]cty.Value{
			"labels": labelList,
		}),
	}

	if len(stepOutputs) > 0 {
		steps := make(map[string]cty.Value, len(stepOutputs))
		for name, out := range stepOutputs {
			steps[name] = cty.ObjectVal(map[string]cty.Value{"output": out})
		}
		vars["steps"] = cty.ObjectVal(steps)
	}

	return &hcl.EvalContext{Variables: vars, Functions: functions}
}

// Evaluate resolves an optional condition expression to a boolean. A nil
// expression is true. A value that cannot convert to bool is an error.
func Evaluate(expr hcl.Expression, evalCtx *hcl.EvalContext) (bool, error) {
	if expr == nil {
		return true, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("evaluating condition: %w", diags)
	}

	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("condition must be a boolean, got %s: %w", val.Type().FriendlyName(), err)
	}
	if boolVal.IsNull() {
		return false, fmt.Errorf("condition evaluated to null")
	}

	return boolVal.True(), nil
}
