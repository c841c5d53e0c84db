package yamlcfg

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// expressionFromYAML converts a decoded YAML value into an hcl.Expression.
// Strings are parsed as HCL templates so interpolation works; everything
// else becomes a literal value expression.
func expressionFromYAML(v any, source string) (hcl.Expression, error) {
	if s, ok := v.(string); ok {
		expr, diags := hclsyntax.ParseTemplate([]byte(s), source, hcl.InitialPos)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid template %q: %w", s, diags)
		}
		return expr, nil
	}

	val, err := ctyFromYAML(v)
	if err != nil {
		return nil, err
	}
	return &hclsyntax.LiteralValueExpr{Val: val}, nil
}

// ctyFromYAML maps the types yaml.v3 produces for untyped values onto cty.
func ctyFromYAML(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		return cty.NumberVal(big.NewFloat(t)), nil
	case string:
		return cty.StringVal(t), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(t))
		for _, e := range t {
			ev, err := ctyFromYAML(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(t))
		for k, e := range t {
			ev, err := ctyFromYAML(e)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported YAML value of type %T", v)
	}
}
