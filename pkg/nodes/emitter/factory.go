package emitter

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("emitter").
	String("value", "template of the emitted value").
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "emitter",
		Summary:    "Emits a templated value when triggered",
		Descriptor: Schema,
		Data:       map[string]any{"value": "{{ json .data }}"},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
