// Package console provides a module writing the messages it receives to the log.
package console

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/log"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/template"
)

// Config is the persistent data of the module.
type Config struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// Node renders its "message" template against every input and logs the result.
type Node struct {
	*module.Module

	mu   sync.RWMutex
	last any
}

func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	n := &Node{Module: base}

	_, err = base.AddInput(module.InputSpec{
		Description: "the value to display",
		OnTriggered: n.display,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

// Last returns the last rendered message.
func (n *Node) Last() any {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.last
}

func (n *Node) display(in module.Input, _ *cache.Cache) error {
	var config Config
	if err := configuration.Decode(in.Configuration, &config); err != nil {
		return err
	}

	rendered, err := template.Text(config.Message, template.Scope{
		Data:          in.Data,
		Configuration: in.Configuration,
		Context:       in.Context.UserContext(),
	})
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.last = rendered
	n.mu.Unlock()

	level := log.ParseLevel(config.Level)
	n.Logger().Log(context.Background(), level, rendered)

	if level >= slog.LevelWarn {
		in.Context.Warning(rendered, in.Data)
	} else {
		in.Context.Info(rendered, in.Data)
	}

	return nil
}
