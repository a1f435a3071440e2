// Package emitter provides a module emitting a templated value each time it is triggered.
package emitter

import (
	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/template"
)

// Node renders its "value" template on every input and emits the typed result:
// JSON objects and arrays are decoded, numbers and booleans parsed.
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
		Description: "triggers an emission",
		OnTriggered: n.emit,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) Output() *module.Output { return n.output }

func (n *Node) emit(in module.Input, _ *cache.Cache) error {
	source, _ := in.Configuration["value"].(string)

	value, err := template.Render(source, template.Scope{
		Data:          in.Data,
		Configuration: in.Configuration,
		Context:       in.Context.UserContext(),
	})
	if err != nil {
		return err
	}

	n.output.Emit(value, in.Context)

	return nil
}
