// Package redis provides Redis-backed persistence for projects: each project is a
// JSON document under "<prefix><id>", and a set under "<prefix>index" lists the ids.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/persistence"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "fluxrt:project:"

// Persistence implements the persistence.Persistence interface on Redis.
type Persistence struct {
	client *backend.Client
	prefix string
}

type Option func(*Persistence)

// WithPrefix sets the key prefix of project documents.
func WithPrefix(prefix string) Option {
	return func(p *Persistence) {
		p.prefix = prefix
	}
}

// NewPersistence connects to the Redis server described by url, e.g. "redis://localhost:6379/0".
func NewPersistence(url string, opts ...Option) (*Persistence, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Persistence {
	p := &Persistence{client: client, prefix: defaultPrefix}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Persistence) key(id string) string {
	return p.prefix + id
}

func (p *Persistence) indexKey() string {
	return p.prefix + "index"
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) SaveProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		return persistence.NewProjectError("SaveProject", project.ID, persistence.ErrInvalidProject)
	}

	raw, err := persistence.Encode(project, persistence.FormatJSON)
	if err != nil {
		return persistence.NewProjectError("SaveProject", project.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.key(project.ID), raw, 0)
	pipe.SAdd(ctx, p.indexKey(), project.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewProjectError("SaveProject", project.ID, err)
	}

	return nil
}

func (p *Persistence) ProjectByID(ctx context.Context, id string) (*models.Project, error) {
	raw, err := p.client.Get(ctx, p.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, persistence.NewProjectError("ProjectByID", id, persistence.ErrProjectNotFound)
	}

	if err != nil {
		return nil, persistence.NewProjectError("ProjectByID", id, err)
	}

	project, err := persistence.Decode(raw, persistence.FormatJSON)
	if err != nil {
		return nil, persistence.NewProjectError("ProjectByID", id, err)
	}

	return project, nil
}

// Projects loads every indexed project, sorted by id. Ids whose document vanished are skipped.
func (p *Persistence) Projects(ctx context.Context) ([]*models.Project, error) {
	ids, err := p.client.SMembers(ctx, p.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	slices.Sort(ids)

	projects := make([]*models.Project, 0, len(ids))

	for _, id := range ids {
		project, err := p.ProjectByID(ctx, id)
		if persistence.IsProjectNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		projects = append(projects, project)
	}

	return projects, nil
}

func (p *Persistence) DeleteProject(ctx context.Context, id string) error {
	pipe := p.client.TxPipeline()
	deleted := pipe.Del(ctx, p.key(id))
	pipe.SRem(ctx, p.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewProjectError("DeleteProject", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewProjectError("DeleteProject", id, persistence.ErrProjectNotFound)
	}

	return nil
}
