// Package module provides the base every node type builds upon: input and output
// slots, the processing pipeline run for each incoming message, the module cache,
// journals and log channels.
package module

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/log"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/schema"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Node is implemented by every node type, usually by embedding *Module.
type Node interface {
	Base() *Module
}

// Params configures a Module.
type Params struct {
	// ModuleID defaults to a random UUID.
	ModuleID      string
	FactoryID     models.FactoryID
	Configuration models.ModuleConfiguration
	// Schema validates the merged configuration; nil disables type checks.
	Schema schema.Provider
	// Cache is handed over from a previous instance to keep it warm; a new one is created when nil.
	Cache *cache.Cache
	// Registerer receives the metrics of a newly created cache.
	Registerer    prometheus.Registerer
	Logger        *slog.Logger
	ActivitySinks []tracing.Sink
	ErrorSinks    []tracing.Sink
	// Tracer exports the trace of every processed message when set.
	Tracer trace.Tracer
}

// Module is a processing unit exchanging messages through its slots.
type Module struct {
	id            string
	factoryID     models.FactoryID
	configuration models.ModuleConfiguration
	schema        schema.Provider
	cache         *cache.Cache
	logger        *slog.Logger
	tracer        trace.Tracer
	channels      []*tracing.LogChannel

	mu       sync.RWMutex
	inputs   []*InputSlot
	outputs  []*OutputSlot
	journals []tracing.Journal
	lastLog  *tracing.LogEntry
}

// New creates a module without slots.
func New(params Params) (*Module, error) {
	id := params.ModuleID
	if id == "" {
		id = uuid.NewString()
	}

	moduleCache := params.Cache
	if moduleCache == nil {
		var opts []cache.Option
		if params.Registerer != nil {
			opts = append(opts, cache.WithMetrics(params.Registerer, id))
		}

		created, err := cache.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", id, err)
		}

		moduleCache = created
	}

	logger := params.Logger
	if logger == nil {
		logger = log.WithModule(params.FactoryID.String())
	}

	if params.Configuration.Data == nil {
		params.Configuration.Data = map[string]any{}
	}

	m := &Module{
		id:            id,
		factoryID:     params.FactoryID,
		configuration: params.Configuration,
		schema:        params.Schema,
		cache:         moduleCache,
		logger:        logger.With("module_id", id),
		tracer:        params.Tracer,
	}

	activity := append([]tracing.Sink{tracing.SinkFunc(m.recordLog)}, params.ActivitySinks...)
	m.channels = []*tracing.LogChannel{
		tracing.NewLogChannel(tracing.AllLogs, activity...),
		tracing.NewLogChannel(tracing.ErrorsOnly, params.ErrorSinks...),
	}

	return m, nil
}

// Base returns m, so that node types embedding *Module implement Node.
func (m *Module) Base() *Module { return m }

func (m *Module) ID() string { return m.id }

func (m *Module) FactoryID() models.FactoryID { return m.factoryID }

func (m *Module) Configuration() models.ModuleConfiguration { return m.configuration }

// PersistentData returns the default configuration data, to be merged with the
// overrides carried by messages.
func (m *Module) PersistentData() map[string]any { return m.configuration.Data }

// Cache returns the module cache, e.g. to hand it over to a new instance.
func (m *Module) Cache() *cache.Cache { return m.cache }

func (m *Module) Logger() *slog.Logger { return m.logger }

// LogChannels returns the channels every context created by the module dispatches to:
// all logs to the activity sinks, error logs to the error sinks.
func (m *Module) LogChannels() []*tracing.LogChannel { return m.channels }

func (m *Module) recordLog(entry *tracing.LogEntry) {
	m.mu.Lock()
	m.lastLog = entry
	m.mu.Unlock()
}

// LastLog returns the most recent log entry of the module, nil when none was emitted.
func (m *Module) LastLog() *tracing.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastLog
}

// AddJournal records journal, replacing any journal with the same title.
func (m *Module) AddJournal(journal tracing.Journal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.journals = slices.DeleteFunc(m.journals, func(j tracing.Journal) bool {
		return j.Title == journal.Title
	})
	m.journals = append(m.journals, journal)
}

// Journals returns the latest journal of each title, oldest title first.
func (m *Module) Journals() []tracing.Journal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.journals)
}

// NewContext creates a root context dispatching to the module log channels, for
// processing started outside an input slot (timers, custom journals).
func (m *Module) NewContext(title string, userContext map[string]any) *tracing.Context {
	return tracing.New(title, userContext, m.channels...)
}
