package persistence_test

import (
	"testing"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlProject = `
id: p1
name: sum
workflow:
  modules:
    - moduleId: a
      factoryId: {pack: core, module: arithmetic}
      configuration:
        title: A
        data:
          operation: sum
  connections:
    - start: {moduleId: a, slotId: output}
      end: {moduleId: b, slotId: input}
      adaptor:
        adaptorId: wrap
        configuration:
          title: wrap
          data:
            code: '{"data": [data, 1]}'
`

func TestDecodeYAML(t *testing.T) {
	project, err := persistence.Decode([]byte(yamlProject), persistence.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "p1", project.ID)
	require.Len(t, project.Workflow.Modules, 1)
	assert.Equal(t, "core/arithmetic", project.Workflow.Modules[0].FactoryID.String())
	assert.Equal(t, "sum", project.Workflow.Modules[0].Configuration.Data["operation"])

	require.Len(t, project.Workflow.Connections, 1)
	conn := project.Workflow.Connections[0]
	assert.Equal(t, "input@b-output@a", conn.ID())
	assert.Equal(t, `{"data": [data, 1]}`, conn.Adaptor.Code())
}

func TestEncodeDecodeJSON(t *testing.T) {
	project := &models.Project{ID: "p1", Name: "empty"}

	raw, err := persistence.Encode(project, persistence.FormatJSON)
	require.NoError(t, err)

	decoded, err := persistence.Decode(raw, persistence.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, project, decoded)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := persistence.Decode([]byte("{"), persistence.FormatJSON)
	require.ErrorIs(t, err, persistence.ErrInvalidProject)

	_, err = persistence.FormatOf("project.toml")
	require.ErrorIs(t, err, persistence.ErrUnsupportedFormat)

	format, err := persistence.FormatOf("project.YML")
	require.NoError(t, err)
	assert.Equal(t, persistence.FormatYAML, format)
}

func TestProjectError(t *testing.T) {
	err := persistence.NewProjectError("ProjectByID", "p1", persistence.ErrProjectNotFound)

	assert.True(t, persistence.IsProjectNotFound(err))
	assert.Contains(t, err.Error(), "ProjectByID")
	assert.Contains(t, err.Error(), "p1")
}
