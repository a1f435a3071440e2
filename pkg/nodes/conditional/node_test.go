package conditional

import (
	"testing"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		data      any
		branch    bool
	}{
		{"comparison true", `data.status == "active"`, map[string]any{"status": "active"}, true},
		{"comparison false", `data.status == "active"`, map[string]any{"status": "idle"}, false},
		{"literal false", "false", 1, false},
		{"number", "data", 0, false},
		{"non empty string", `"yes"`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(module.Params{
				ModuleID:      "cond",
				Configuration: models.ModuleConfiguration{Data: map[string]any{"condition": tt.condition}},
			})
			require.NoError(t, err)

			input, err := n.GetInputSlot(module.DefaultInputID)
			require.NoError(t, err)

			input.Trigger(nil, models.Message{Data: tt.data})

			taken, ok := n.Output(tt.branch).Slot().Last()
			require.True(t, ok)
			assert.Equal(t, tt.data, taken.Data)

			_, other := n.Output(!tt.branch).Slot().Last()
			assert.False(t, other)
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.True(t, truthy("true"))
	assert.False(t, truthy("false"))
	assert.False(t, truthy(""))
	assert.True(t, truthy([]any{1}))
	assert.False(t, truthy(map[string]any{}))
	assert.False(t, truthy(nil))
}
