package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/models"
)

// ErrNotRunning indicates no running workflow has the requested project id.
var ErrNotRunning = errors.New("project not running")

// Manager runs the workflows of several projects.
type Manager struct {
	repository *Repository
	options    Options
	logger     *slog.Logger

	mu      sync.RWMutex
	running map[string]*Workflow
}

// NewManager creates a manager loading projects from repository, which may be nil
// when projects are only handed over through RunProject.
func NewManager(repository *Repository, options Options) *Manager {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		repository: repository,
		options:    options,
		logger:     logger.With("module", "manager"),
		running:    make(map[string]*Workflow),
	}
}

// Run loads the project with the given id from the repository and starts it.
func (wm *Manager) Run(ctx context.Context, projectID string) (*Workflow, error) {
	if wm.repository == nil {
		return nil, errors.New("manager has no repository")
	}

	project, err := wm.repository.FetchByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return wm.RunProject(ctx, project)
}

// RunAll starts every stored project. Projects failing to start are logged and skipped.
func (wm *Manager) RunAll(ctx context.Context) error {
	if wm.repository == nil {
		return errors.New("manager has no repository")
	}

	projects, err := wm.repository.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch projects: %w", err)
	}

	if len(projects) == 0 {
		wm.logger.Info("No projects")

		return nil
	}

	wm.logger.Info("Found projects", "count", len(projects))

	for _, project := range projects {
		if _, err := wm.RunProject(ctx, project); err != nil {
			wm.logger.Error("Failed to start project", "project_id", project.ID, "error", err)
		}
	}

	return nil
}

// RunProject starts project, replacing a running workflow of the same id. The caches
// of the replaced modules are handed over to the new modules of the same id and factory.
func (wm *Manager) RunProject(ctx context.Context, project *models.Project) (*Workflow, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	options := wm.options
	previous := wm.running[project.ID]

	if previous != nil {
		options.Caches = handOver(previous, project)
	}

	w, err := Load(project, options)
	if err != nil {
		return nil, err
	}

	if previous != nil {
		if err := previous.Stop(ctx); err != nil {
			wm.logger.Warn("Failed to stop replaced project", "project_id", project.ID, "error", err)
		}
	}

	if err := w.Start(ctx); err != nil {
		_ = w.Stop(ctx)

		if previous != nil {
			wm.restore(ctx, previous)
		}

		return nil, err
	}

	wm.running[project.ID] = w
	wm.logger.Info("Started project", "project_id", project.ID, "name", project.Name)

	return w, nil
}

// restore restarts a replaced workflow after its replacement failed to start. A
// workflow that cannot be restarted is no longer reported as running.
func (wm *Manager) restore(ctx context.Context, previous *Workflow) {
	id := previous.Project().ID

	if err := previous.Start(ctx); err != nil {
		_ = previous.Stop(ctx)
		delete(wm.running, id)
		wm.logger.Error("Failed to restore replaced project", "project_id", id, "error", err)

		return
	}

	wm.logger.Warn("Restored replaced project", "project_id", id)
}

func handOver(previous *Workflow, project *models.Project) map[string]*cache.Cache {
	caches := map[string]*cache.Cache{}

	for _, view := range project.Workflow.Modules {
		node, err := previous.Module(view.ModuleID)
		if err != nil || node.Base().FactoryID() != view.FactoryID {
			continue
		}

		caches[view.ModuleID] = node.Base().Cache()
	}

	return caches
}

func (wm *Manager) Get(projectID string) (*Workflow, error) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	w, ok := wm.running[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRunning, projectID)
	}

	return w, nil
}

// Running returns the sorted ids of the running projects.
func (wm *Manager) Running() []string {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return slices.Sorted(maps.Keys(wm.running))
}

func (wm *Manager) Stop(ctx context.Context, projectID string) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	w, ok := wm.running[projectID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, projectID)
	}

	delete(wm.running, projectID)

	return w.Stop(ctx)
}

// StopAll stops every running project.
func (wm *Manager) StopAll(ctx context.Context) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	var errs []error

	for id, w := range wm.running {
		wm.logger.Info("Stopping project", "project_id", id)

		if err := w.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", id, err))
		}
	}

	wm.running = make(map[string]*Workflow)

	return errors.Join(errs...)
}
