package conditional

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("conditional").
	Code("condition", "expression deciding the output taken by the input").
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "conditional",
		Summary:    "Routes its input to the true or false output",
		Descriptor: Schema,
		Data:       map[string]any{"condition": "true"},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
