// Package switchnode provides a module routing its input to one of several outputs.
package switchnode

import (
	"fmt"
	"strings"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/template"
)

// OutputDefault receives the inputs matching no case.
const OutputDefault = "default"

// Case maps a rendered value to an output.
type Case struct {
	Value  string `json:"value"`
	Output string `json:"output"`
}

// Config is the persistent data of the module.
type Config struct {
	Value string `json:"value"`
	Cases []Case `json:"cases"`
}

// Node renders its "value" template against every input and forwards the input
// unchanged on the output of the first case with the same value, or on "default".
type Node struct {
	*module.Module
	outputs map[string]*module.Output
}

// New declares the "default" output and one output per distinct case output of the
// persistent data.
func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := configuration.Decode(params.Configuration.Data, &config); err != nil {
		return nil, fmt.Errorf("switch %s: %w", base.ID(), err)
	}

	n := &Node{Module: base, outputs: map[string]*module.Output{}}

	ids := []string{OutputDefault}
	for _, c := range config.Cases {
		ids = append(ids, c.Output)
	}

	for _, id := range ids {
		if _, ok := n.outputs[id]; ok {
			continue
		}

		if id == "" {
			return nil, fmt.Errorf("switch %s: case without output", base.ID())
		}

		output, err := base.AddOutput(id)
		if err != nil {
			return nil, err
		}

		n.outputs[id] = output
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

// Output returns the output with the given id, or nil.
func (n *Node) Output(id string) *module.Output { return n.outputs[id] }

func (n *Node) route(in module.Input, _ *cache.Cache) error {
	var config Config
	if err := configuration.Decode(in.Configuration, &config); err != nil {
		return err
	}

	rendered, err := template.Text(config.Value, template.Scope{
		Data:          in.Data,
		Configuration: in.Configuration,
		Context:       in.Context.UserContext(),
	})
	if err != nil {
		return err
	}

	rendered = strings.TrimSpace(rendered)
	target := OutputDefault

	for _, c := range config.Cases {
		if c.Value == rendered {
			target = c.Output

			break
		}
	}

	output, ok := n.outputs[target]
	if !ok {
		return fmt.Errorf("switch %s: case %q routes to undeclared output %q", n.ID(), rendered, target)
	}

	in.Context.Info("case matched", map[string]any{"value": rendered, "output": target})
	output.Emit(in.Data, in.Context)

	return nil
}
