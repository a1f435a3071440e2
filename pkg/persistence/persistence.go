// Package persistence provides the storage abstraction for projects.
package persistence

import (
	"context"

	"github.com/dukex/fluxrt/pkg/models"
)

type Persistence interface {
	Projects(ctx context.Context) ([]*models.Project, error)
	SaveProject(ctx context.Context, project *models.Project) error
	ProjectByID(ctx context.Context, id string) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
