package arithmetic

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("arithmetic").
	Enum("operation", "operation applied to the two operands",
		OperationSum, OperationSubtract, OperationProduct, OperationDivide, OperationModulo, OperationPower).
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "arithmetic",
		Summary:    "Combines two numbers with an arithmetic operation",
		Descriptor: Schema,
		Data:       map[string]any{"operation": OperationSum},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
