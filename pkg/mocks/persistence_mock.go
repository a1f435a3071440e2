// Package mocks provides testify mocks of the runtime interfaces.
package mocks

import (
	"context"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Projects(ctx context.Context) ([]*models.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Project), args.Error(1)
}

func (m *MockPersistence) SaveProject(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)

	return args.Error(0)
}

func (m *MockPersistence) ProjectByID(ctx context.Context, id string) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockPersistence) DeleteProject(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
