// Package ticker provides a module emitting on a cron schedule.
package ticker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/robfig/cron/v3"
)

// Config is the persistent data of the module.
type Config struct {
	Schedule string `json:"schedule"`
	Timezone string `json:"timezone"`
}

// Tick is the emitted value.
type Tick struct {
	Count int64     `json:"count"`
	Time  time.Time `json:"time"`
}

// Node emits a Tick on its output on every occurrence of its schedule once started,
// and on every message received on its input.
type Node struct {
	*module.Module
	output *module.Output

	mu    sync.Mutex
	count int64
	cron  *cron.Cron
}

func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	n := &Node{Module: base}

	n.output, err = base.AddOutput(module.DefaultOutputID)
	if err != nil {
		return nil, err
	}

	_, err = base.AddInput(module.InputSpec{
		Description: "emits a tick immediately",
		OnTriggered: func(in module.Input, _ *cache.Cache) error {
			n.emit(in.Context)

			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) Output() *module.Output { return n.output }

// Start schedules the ticks. Starting a started node is a no-op.
func (n *Node) Start(context.Context) error {
	var config Config
	if err := configuration.Decode(n.PersistentData(), &config); err != nil {
		return err
	}

	location := time.UTC
	if config.Timezone != "" {
		loc, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return fmt.Errorf("ticker %s: %w", n.ID(), err)
		}

		location = loc
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cron != nil {
		return nil
	}

	scheduler := cron.New(cron.WithLocation(location))
	if _, err := scheduler.AddFunc(config.Schedule, n.tick); err != nil {
		return fmt.Errorf("ticker %s: invalid schedule %q: %w", n.ID(), config.Schedule, err)
	}

	scheduler.Start()
	n.cron = scheduler
	n.Logger().Info("ticker started", "schedule", config.Schedule)

	return nil
}

// Stop unschedules the ticks and waits for a running tick to complete.
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	scheduler := n.cron
	n.cron = nil
	n.mu.Unlock()

	if scheduler == nil {
		return nil
	}

	select {
	case <-scheduler.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Node) tick() {
	root := n.NewContext("tick", nil)
	n.AddJournal(tracing.Journal{Title: "Scheduled tick", EntryPoint: root})

	n.emit(root)
	root.End()
}

func (n *Node) emit(ctx *tracing.Context) {
	n.mu.Lock()
	n.count++
	value := Tick{Count: n.count, Time: time.Now().UTC()}
	n.mu.Unlock()

	n.output.Emit(value, ctx)
}
