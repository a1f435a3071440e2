package combine

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("combine").
	Integer("inputs", "number of inputs").
	Enum("mode", "when to emit", ModeAll, ModeAny).
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "combine",
		Summary:    "Emits the latest values of its inputs as an array",
		Descriptor: Schema,
		Data:       map[string]any{"inputs": 2, "mode": ModeAll},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
