// Package conditional provides a module routing its input on a boolean expression.
package conditional

import (
	"fmt"
	"strconv"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes/transform"
	"github.com/expr-lang/expr"
)

const (
	OutputTrue  = "true"
	OutputFalse = "false"
)

// Node evaluates its "condition" expression and forwards the input unchanged on the
// "true" or the "false" output.
type Node struct {
	*module.Module
	outputs map[bool]*module.Output
}

func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	n := &Node{Module: base, outputs: map[bool]*module.Output{}}

	for _, id := range []string{OutputTrue, OutputFalse} {
		output, err := base.AddOutput(id)
		if err != nil {
			return nil, err
		}

		n.outputs[id == OutputTrue] = output
	}

	_, err = base.AddInput(module.InputSpec{
		Description: "the value to route",
		OnTriggered: n.route,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

// Output returns the output taken when the condition evaluates to branch.
func (n *Node) Output(branch bool) *module.Output { return n.outputs[branch] }

func (n *Node) route(in module.Input, c *cache.Cache) error {
	condition, _ := in.Configuration["condition"].(string)

	program, err := transform.Compile(c, condition, in.Context)
	if err != nil {
		return err
	}

	result, err := expr.Run(program, transform.Env(in))
	if err != nil {
		return fmt.Errorf("evaluate %q: %w", condition, err)
	}

	branch := truthy(result)
	in.Context.Info("condition evaluated", map[string]any{"condition": condition, "result": branch})
	n.outputs[branch].Emit(in.Data, in.Context)

	return nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return false
	}
}
