// Package nodes holds the built-in module types of the core pack.
package nodes

import (
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/schema"
	"github.com/mohae/deepcopy"
)

// Pack is the pack name of the built-in modules.
const Pack = "core"

// Factory describes a built-in module type.
type Factory struct {
	Module     string
	Summary    string
	Descriptor *schema.Descriptor
	Data       map[string]any
	New        func(params module.Params) (module.Node, error)
}

func (f *Factory) ID() models.FactoryID {
	return models.FactoryID{Pack: Pack, Module: f.Module}
}

func (f *Factory) Description() string { return f.Summary }

func (f *Factory) Schema() *schema.Descriptor { return f.Descriptor }

func (f *Factory) Defaults() map[string]any {
	data, _ := deepcopy.Copy(f.Data).(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	return data
}

func (f *Factory) Create(params module.Params) (module.Node, error) {
	return f.New(params)
}
