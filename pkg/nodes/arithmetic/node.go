// Package arithmetic provides a module combining two numbers.
package arithmetic

import (
	"errors"
	"fmt"
	"math"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/contract"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/tracing"
)

const (
	OperationSum      = "sum"
	OperationSubtract = "subtract"
	OperationProduct  = "product"
	OperationDivide   = "divide"
	OperationModulo   = "modulo"
	OperationPower    = "power"
)

var ErrDivisionByZero = errors.New("division by zero")

// Config is the persistent data of the module.
type Config struct {
	Operation string `json:"operation"`
}

// Node applies its operation to the two numbers it receives.
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
		ID:          module.DefaultInputID,
		Description: "the two operands",
		Contract:    contract.Count(2, contract.Number()),
		OnTriggered: n.compute,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) Output() *module.Output { return n.output }

func (n *Node) compute(in module.Input, c *cache.Cache) error {
	var config Config
	if err := configuration.Decode(in.Configuration, &config); err != nil {
		return err
	}

	operands, _ := in.Data.([]any)
	lhs, _ := operands[0].(float64)
	rhs, _ := operands[1].(float64)

	key := cache.NewValueKey("result", []any{config.Operation, lhs, rhs})

	result, cached, err := cache.GetOrCreateWithStatus(c, key, func(*tracing.Context) (float64, error) {
		return apply(config.Operation, lhs, rhs)
	}, in.Context)
	if err != nil {
		return err
	}

	return in.Context.WithChild("send output with updated user's context", func(ctx *tracing.Context) error {
		n.output.Emit(result, ctx)

		return nil
	}, map[string]any{"fromCache": cached})
}

func apply(operation string, lhs, rhs float64) (float64, error) {
	switch operation {
	case OperationSum:
		return lhs + rhs, nil
	case OperationSubtract:
		return lhs - rhs, nil
	case OperationProduct:
		return lhs * rhs, nil
	case OperationDivide:
		if rhs == 0 {
			return 0, ErrDivisionByZero
		}

		return lhs / rhs, nil
	case OperationModulo:
		if rhs == 0 {
			return 0, ErrDivisionByZero
		}

		return math.Mod(lhs, rhs), nil
	case OperationPower:
		return math.Pow(lhs, rhs), nil
	default:
		return 0, fmt.Errorf("unknown operation %q", operation)
	}
}
