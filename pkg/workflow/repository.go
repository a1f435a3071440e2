package workflow

import (
	"context"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/persistence"
	"github.com/google/uuid"
)

// Repository validates projects on their way in and out of a persistence layer.
type Repository struct {
	persistence persistence.Persistence
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Project, error) {
	projects, err := r.persistence.Projects(ctx)
	if err != nil {
		return make([]*models.Project, 0), err
	}

	return projects, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Project, error) {
	return r.persistence.ProjectByID(ctx, id)
}

// Create saves a new project, generating its id when empty.
func (r *Repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	if err := Validate(project); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

func (r *Repository) Update(ctx context.Context, id string, project *models.Project) (*models.Project, error) {
	if _, err := r.persistence.ProjectByID(ctx, id); err != nil {
		return nil, err
	}

	project.ID = id

	if err := Validate(project); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.persistence.DeleteProject(ctx, id)
}
