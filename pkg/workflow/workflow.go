// Package workflow turns a persisted project into live modules wired by their
// connections, and drives its lifecycle.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/fluxrt/pkg/adaptor"
	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/eventbus"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/registry"
	"github.com/dukex/fluxrt/pkg/subscription"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the modules created by Load.
type Options struct {
	Registry *registry.Registry
	Logger   *slog.Logger
	// Registerer receives the cache metrics of every module.
	Registerer prometheus.Registerer
	Tracer     trace.Tracer
	// ActivitySinks receive every log of every module; ErrorSinks only the errors.
	ActivitySinks []tracing.Sink
	ErrorSinks    []tracing.Sink
	// EventBus, when set, receives every log of every module.
	EventBus *eventbus.EventBus
	// Caches are handed over to the modules with the same id.
	Caches map[string]*cache.Cache
}

// SkippedConnection is a persisted connection left unwired.
type SkippedConnection struct {
	Connection models.Connection
	Err        error
}

// Workflow is a loaded project.
type Workflow struct {
	project *models.Project
	options Options
	logger  *slog.Logger
	store   *subscription.Store

	mu          sync.RWMutex
	modules     []module.Node
	byID        map[string]module.Node
	connections []models.Connection
	skipped     []SkippedConnection
	running     bool
}

// Load validates project and creates its modules. A module that cannot be created
// fails the load; a connection that cannot be wired is skipped and logged.
func Load(project *models.Project, options Options) (*Workflow, error) {
	if options.Registry == nil {
		return nil, errors.New("workflow: a registry is required")
	}

	if err := Validate(project); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("project_id", project.ID)

	w := &Workflow{
		project: project,
		options: options,
		logger:  logger,
		store:   subscription.NewStore(logger),
		byID:    make(map[string]module.Node, len(project.Workflow.Modules)),
	}

	for _, view := range project.Workflow.Modules {
		node, err := options.Registry.Create(*view, w.params(view.ModuleID))
		if err != nil {
			return nil, fmt.Errorf("failed to create module %s: %w", view.ModuleID, err)
		}

		w.modules = append(w.modules, node)
		w.byID[view.ModuleID] = node
	}

	for _, conn := range project.Workflow.Connections {
		if err := w.prepare(conn); err != nil {
			w.skip(*conn, err)

			continue
		}

		w.connections = append(w.connections, *conn)
	}

	logger.Info("project loaded",
		"modules", len(w.modules),
		"connections", len(w.connections),
		"skipped", len(w.skipped))

	return w, nil
}

func (w *Workflow) params(moduleID string) module.Params {
	activity := w.options.ActivitySinks
	if w.options.EventBus != nil {
		activity = append(append([]tracing.Sink(nil), activity...), w.options.EventBus.Sink(moduleID))
	}

	return module.Params{
		Registerer:    w.options.Registerer,
		Tracer:        w.options.Tracer,
		ActivitySinks: activity,
		ErrorSinks:    w.options.ErrorSinks,
		Cache:         w.options.Caches[moduleID],
	}
}

func (w *Workflow) skip(conn models.Connection, err error) {
	w.logger.Warn("skipping connection", "connection", conn.ID(), "error", err)
	w.skipped = append(w.skipped, SkippedConnection{Connection: conn, Err: err})
}

// prepare checks both ends of conn exist and compiles its adaptor.
func (w *Workflow) prepare(conn *models.Connection) error {
	start, ok := w.byID[conn.Start.ModuleID]
	if !ok {
		return fmt.Errorf("%w: %s", module.ErrModuleNotFound, conn.Start.ModuleID)
	}

	if _, err := start.Base().GetOutputSlot(conn.Start.SlotID); err != nil {
		return err
	}

	end, ok := w.byID[conn.End.ModuleID]
	if !ok {
		return fmt.Errorf("%w: %s", module.ErrModuleNotFound, conn.End.ModuleID)
	}

	if _, err := end.Base().GetInputSlot(conn.End.SlotID); err != nil {
		return err
	}

	if conn.Adaptor != nil {
		if err := adaptor.Resolve(conn.Adaptor, w.options.Registry); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workflow) Project() *models.Project { return w.project }

// Modules returns the modules in declaration order.
func (w *Workflow) Modules() []module.Node {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return append([]module.Node(nil), w.modules...)
}

func (w *Workflow) Module(id string) (module.Node, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	node, ok := w.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", module.ErrModuleNotFound, id)
	}

	return node, nil
}

// Connections returns the wired connections.
func (w *Workflow) Connections() []models.Connection {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return append([]models.Connection(nil), w.connections...)
}

func (w *Workflow) Skipped() []SkippedConnection {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return append([]SkippedConnection(nil), w.skipped...)
}

// Start subscribes every connection, then starts the modules producing messages on
// their own.
func (w *Workflow) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.store.Subscribe(w.modules, w.connections); err != nil {
		return err
	}

	var errs []error

	for _, node := range w.modules {
		if runner, ok := node.(module.Runner); ok {
			if err := runner.Start(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to start module %s: %w", node.Base().ID(), err))
			}
		}
	}

	w.running = true
	w.logger.Info("project started", "subscriptions", w.store.Len())

	return errors.Join(errs...)
}

// Stop stops the running modules and unsubscribes every connection.
func (w *Workflow) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	var errs []error

	for _, node := range w.modules {
		if runner, ok := node.(module.Runner); ok {
			if err := runner.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop module %s: %w", node.Base().ID(), err))
			}
		}
	}

	w.store.Clear()
	w.running = false
	w.logger.Info("project stopped")

	return errors.Join(errs...)
}

// UpdateConnections unwires removed and wires created. Created connections that
// cannot be wired are skipped and reported in the returned error.
func (w *Workflow) UpdateConnections(created, removed []*models.Connection) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	removedIDs := make(map[string]bool, len(removed))
	removedConns := make([]models.Connection, 0, len(removed))

	for _, conn := range removed {
		removedIDs[conn.ID()] = true
		removedConns = append(removedConns, *conn)
	}

	kept := slices.DeleteFunc(slices.Clone(w.connections), func(conn models.Connection) bool {
		return removedIDs[conn.ID()]
	})

	var (
		errs  []error
		wired []models.Connection
	)

	for _, conn := range created {
		if err := w.prepare(conn); err != nil {
			w.skip(*conn, err)
			errs = append(errs, fmt.Errorf("connection %s: %w", conn.ID(), err))

			continue
		}

		wired = append(wired, *conn)
	}

	for _, conn := range wired {
		kept = slices.DeleteFunc(kept, func(c models.Connection) bool { return c.ID() == conn.ID() })
		kept = append(kept, conn)
	}

	w.connections = kept

	if w.running {
		errs = append(errs, w.store.Update(w.modules, wired, removedConns))
	}

	return errors.Join(errs...)
}

// Inject processes message on an input slot, as if it came from a connection
// without adaptor.
func (w *Workflow) Inject(moduleID, slotID string, message models.Message) error {
	node, err := w.Module(moduleID)
	if err != nil {
		return err
	}

	input, err := node.Base().GetInputSlot(slotID)
	if err != nil {
		return err
	}

	if message.Context == nil {
		message.Context = map[string]any{}
	}

	input.Trigger(nil, message)

	return nil
}
