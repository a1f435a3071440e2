package switchnode

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var CaseSchema = schema.NewBuilder("SwitchCase").
	String("value", "rendered value selecting the case").
	String("output", "output taken when the case matches").
	MustBuild()

var Schema = schema.NewBuilder("switch").
	String("value", "template rendered against the input, compared to the cases").
	List("cases", "cases tried in order, the first match wins", CaseSchema).
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "switch",
		Summary:    "Routes its input to the output of the case matching a rendered value",
		Descriptor: Schema,
		Data:       map[string]any{"value": "{{ .data }}", "cases": []any{}},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
