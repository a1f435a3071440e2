package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/persistence"
	"github.com/dukex/fluxrt/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func project(id string) *models.Project {
	return &models.Project{
		ID:   id,
		Name: "project " + id,
		Workflow: models.Workflow{
			Modules: []*models.ModuleView{{
				ModuleID:  "a",
				FactoryID: models.FactoryID{Pack: "core", Module: "arithmetic"},
				Configuration: models.ModuleConfiguration{
					Title: "A",
					Data:  map[string]any{"operation": "sum"},
				},
			}},
		},
	}
}

func TestPersistence_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence("file://"+t.TempDir(), persistence.FormatJSON)

	require.NoError(t, store.SaveProject(ctx, project("b")))
	require.NoError(t, store.SaveProject(ctx, project("a")))

	loaded, err := store.ProjectByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, project("a"), loaded)

	projects, err := store.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "a", projects[0].ID)
	assert.Equal(t, "b", projects[1].ID)
}

func TestPersistence_YAMLDocumentsKeepTheirFormat(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "projects")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "y.yaml"), []byte("id: y\nname: yaml\n"), 0o600))

	store := file.NewPersistence(root, persistence.FormatJSON)

	loaded, err := store.ProjectByID(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, "yaml", loaded.Name)

	loaded.Name = "renamed"
	require.NoError(t, store.SaveProject(ctx, loaded))

	_, err = os.Stat(filepath.Join(dir, "y.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	raw, err := os.ReadFile(filepath.Join(dir, "y.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: renamed")
}

func TestPersistence_NotFound(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir(), "")

	_, err := store.ProjectByID(ctx, "missing")
	assert.True(t, persistence.IsProjectNotFound(err))

	_, err = store.ProjectByID(ctx, "../escape")
	assert.True(t, persistence.IsProjectNotFound(err))

	assert.True(t, persistence.IsProjectNotFound(store.DeleteProject(ctx, "missing")))

	projects, err := store.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestPersistence_Delete(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir(), persistence.FormatYAML)

	require.NoError(t, store.SaveProject(ctx, project("a")))
	require.NoError(t, store.DeleteProject(ctx, "a"))

	_, err := store.ProjectByID(ctx, "a")
	assert.True(t, persistence.IsProjectNotFound(err))
}

func TestPersistence_HealthCheck(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, file.NewPersistence(t.TempDir(), "").HealthCheck(ctx))
	assert.Error(t, file.NewPersistence(filepath.Join(t.TempDir(), "nope"), "").HealthCheck(ctx))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yml")
	require.NoError(t, os.WriteFile(path, []byte("id: p\nname: from file\n"), 0o600))

	loaded, err := file.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from file", loaded.Name)
}
