package registry

import (
	"errors"

	"github.com/dukex/fluxrt/pkg/nodes/arithmetic"
	"github.com/dukex/fluxrt/pkg/nodes/combine"
	"github.com/dukex/fluxrt/pkg/nodes/conditional"
	"github.com/dukex/fluxrt/pkg/nodes/console"
	"github.com/dukex/fluxrt/pkg/nodes/emitter"
	"github.com/dukex/fluxrt/pkg/nodes/httprequest"
	switchnode "github.com/dukex/fluxrt/pkg/nodes/switch"
	"github.com/dukex/fluxrt/pkg/nodes/ticker"
	"github.com/dukex/fluxrt/pkg/nodes/transform"
)

// RegisterDefaultNodes registers the factories of the core pack.
func (r *Registry) RegisterDefaultNodes() error {
	return errors.Join(
		r.Register(arithmetic.NewFactory()),
		r.Register(combine.NewFactory()),
		r.Register(conditional.NewFactory()),
		r.Register(console.NewFactory()),
		r.Register(emitter.NewFactory()),
		r.Register(httprequest.NewFactory()),
		r.Register(switchnode.NewFactory()),
		r.Register(ticker.NewFactory()),
		r.Register(transform.NewFactory()),
	)
}
