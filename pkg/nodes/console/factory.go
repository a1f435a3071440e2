package console

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("console").
	String("message", "template rendered against data, configuration and context").
	Enum("level", "log level", "debug", "info", "warn", "error").
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "console",
		Summary:    "Logs the messages it receives",
		Descriptor: Schema,
		Data:       map[string]any{"message": "{{ .data }}", "level": "info"},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
