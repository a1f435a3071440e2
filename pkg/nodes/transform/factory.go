package transform

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("transform").
	Code("code", "expression evaluated against data, configuration and context").
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "transform",
		Summary:    "Maps its input with an expression",
		Descriptor: Schema,
		Data:       map[string]any{"code": "data"},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
