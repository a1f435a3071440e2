package ticker

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("ticker").
	String("schedule", "cron expression or descriptor such as @every 1s").
	String("timezone", "location the schedule is evaluated in").
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "ticker",
		Summary:    "Emits on a cron schedule",
		Descriptor: Schema,
		Data:       map[string]any{"schedule": "@every 1s", "timezone": "UTC"},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
