// Package transform provides a module mapping its input with an expression.
package transform

import (
	"fmt"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Node evaluates its "code" expression against each input and emits the result.
// The expression sees the variables data, configuration and context.
type Node struct {
	*module.Module
	output *module.Output
}

func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	n := &Node{Module: base}

	n.output, err = base.AddOutput(module.DefaultOutputID)
	if err != nil {
		return nil, err
	}

	_, err = base.AddInput(module.InputSpec{
		Description: "the value to transform",
		OnTriggered: n.transform,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) Output() *module.Output { return n.output }

func (n *Node) transform(in module.Input, c *cache.Cache) error {
	code, _ := in.Configuration["code"].(string)

	program, err := Compile(c, code, in.Context)
	if err != nil {
		return err
	}

	result, err := expr.Run(program, Env(in))
	if err != nil {
		return fmt.Errorf("evaluate %q: %w", code, err)
	}

	n.output.Emit(result, in.Context)

	return nil
}

// Compile returns the program of code, compiled once per distinct source.
func Compile(c *cache.Cache, code string, ctx *tracing.Context) (*vm.Program, error) {
	return cache.GetOrCreate(c, cache.NewValueKey("program", code), func(*tracing.Context) (*vm.Program, error) {
		program, err := expr.Compile(code, expr.Env(Env(module.Input{})))
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", code, err)
		}

		return program, nil
	}, ctx)
}

// Env exposes an input to expressions as the variables data, configuration and context.
func Env(in module.Input) map[string]any {
	configuration := in.Configuration
	if configuration == nil {
		configuration = map[string]any{}
	}

	userContext := map[string]any{}
	if in.Context != nil {
		userContext = in.Context.UserContext()
	}

	return map[string]any{
		"data":          in.Data,
		"configuration": configuration,
		"context":       userContext,
	}
}
