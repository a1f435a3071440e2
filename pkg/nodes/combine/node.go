// Package combine provides a module joining the latest values of several inputs.
package combine

import (
	"fmt"
	"sync"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/module"
)

const (
	// ModeAll emits once every input received a value, then on each new value.
	ModeAll = "all"
	// ModeAny emits on each value, missing inputs being nil.
	ModeAny = "any"
)

// Node keeps the latest value of each of its inputs and emits them as an array
// ordered like the inputs.
type Node struct {
	*module.Module
	output *module.Output

	mu       sync.Mutex
	values   []any
	received []bool
}

// New creates a node with the number of inputs set by the "inputs" attribute of
// the persistent data, named input-0, input-1 and so on.
func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	count := 2
	if inputs, ok := params.Configuration.Data["inputs"].(float64); ok {
		count = int(inputs)
	} else if inputs, ok := params.Configuration.Data["inputs"].(int); ok {
		count = inputs
	}

	if count < 1 {
		return nil, fmt.Errorf("combine %s: at least one input is required", base.ID())
	}

	n := &Node{Module: base, values: make([]any, count), received: make([]bool, count)}

	n.output, err = base.AddOutput(module.DefaultOutputID)
	if err != nil {
		return nil, err
	}

	for i := range count {
		_, err = base.AddInput(module.InputSpec{
			ID:          InputID(i),
			Description: fmt.Sprintf("value at index %d", i),
			OnTriggered: func(in module.Input, _ *cache.Cache) error {
				n.receive(i, in)

				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return n, nil
}

func InputID(index int) string {
	return fmt.Sprintf("input-%d", index)
}

func (n *Node) Output() *module.Output { return n.output }

func (n *Node) receive(index int, in module.Input) {
	n.mu.Lock()
	n.values[index] = in.Data
	n.received[index] = true

	ready := true
	if mode, _ := in.Configuration["mode"].(string); mode != ModeAny {
		for _, ok := range n.received {
			ready = ready && ok
		}
	}

	values := append([]any(nil), n.values...)
	n.mu.Unlock()

	if !ready {
		in.Context.Info("waiting for the other inputs", values)

		return
	}

	n.output.Emit(values, in.Context)
}
