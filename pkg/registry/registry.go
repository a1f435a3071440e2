// Package registry holds the module factories and named adaptors available to a
// process. A Registry is built once at startup and passed to its consumers.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/schema"
)

var (
	// ErrFactoryNotFound indicates no factory is registered under the requested id.
	ErrFactoryNotFound = errors.New("factory not found")

	// ErrDuplicateFactory indicates a factory id is registered twice.
	ErrDuplicateFactory = errors.New("factory already registered")
)

// Factory creates the modules of one type.
type Factory interface {
	ID() models.FactoryID
	Description() string
	// Schema describes the persistent data of the modules.
	Schema() *schema.Descriptor
	// Defaults is the persistent data of a module saved without configuration, as a
	// new map on every call.
	Defaults() map[string]any
	Create(params module.Params) (module.Node, error)
}

// Registry maps factory ids to factories, grouped by pack.
type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	factories map[string]Factory
	adaptors  map[string]models.MappingFunc
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		logger:    log,
		factories: make(map[string]Factory),
		adaptors:  make(map[string]models.MappingFunc),
	}
}

func (r *Registry) Register(factory Factory) error {
	id := factory.ID().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, id)
	}

	r.factories[id] = factory
	r.logger.Debug("registered factory", "factory", id)

	return nil
}

// RegisterAdaptor registers a named mapping, resolved by adaptor id when a
// connection is loaded.
func (r *Registry) RegisterAdaptor(id string, mapping models.MappingFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adaptors[id] = mapping
}

// Adaptor returns the named mapping registered under id.
func (r *Registry) Adaptor(id string) (models.MappingFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mapping, ok := r.adaptors[id]

	return mapping, ok
}

func (r *Registry) Factory(id models.FactoryID) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFactoryNotFound, id)
	}

	return factory, nil
}

// Factories returns every registered factory sorted by id.
func (r *Registry) Factories() []Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.factories))
	factories := make([]Factory, 0, len(ids))

	for _, id := range ids {
		factories = append(factories, r.factories[id])
	}

	return factories
}

// Packs returns the sorted names of the packs holding at least one factory.
func (r *Registry) Packs() []string {
	var packs []string

	for _, factory := range r.Factories() {
		if pack := factory.ID().Pack; !slices.Contains(packs, pack) {
			packs = append(packs, pack)
		}
	}

	slices.Sort(packs)

	return packs
}

// Create instantiates the module described by view. The saved configuration data is
// merged over the factory defaults and must be consistent with the factory schema.
func (r *Registry) Create(view models.ModuleView, params module.Params) (module.Node, error) {
	factory, err := r.Factory(view.FactoryID)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", view.ModuleID, err)
	}

	var provider schema.Provider

	descriptor := factory.Schema()
	if descriptor != nil {
		provider = descriptor
	}

	status := configuration.Merge(factory.Defaults(), view.Configuration.Data, provider)
	if !status.IsConsistent() {
		return nil, &module.ConfigurationError{ModuleID: view.ModuleID, Status: status}
	}

	if descriptor != nil {
		if err := descriptor.Validate(status.Result); err != nil {
			return nil, fmt.Errorf("module %s: %w", view.ModuleID, err)
		}
	}

	params.ModuleID = view.ModuleID
	params.FactoryID = view.FactoryID
	params.Schema = provider
	params.Configuration = models.ModuleConfiguration{
		Title:       view.Configuration.Title,
		Description: view.Configuration.Description,
		Data:        status.Result,
	}

	if params.Logger == nil {
		params.Logger = r.logger.With("module", view.FactoryID.String())
	}

	node, err := factory.Create(params)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", view.ModuleID, err)
	}

	return node, nil
}
