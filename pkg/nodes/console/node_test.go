package console

import (
	"bytes"
	"testing"

	"github.com/dukex/fluxrt/pkg/log"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay(t *testing.T) {
	var buf bytes.Buffer

	activity := tracing.NewMemorySink()

	n, err := New(module.Params{
		ModuleID: "console",
		Logger:   log.New(&buf, "debug", "text"),
		Configuration: models.ModuleConfiguration{Data: map[string]any{
			"message": "{{ .context.user }} sent {{ .data }}",
			"level":   "warn",
		}},
		ActivitySinks: []tracing.Sink{activity},
	})
	require.NoError(t, err)

	input, err := n.GetInputSlot(module.DefaultInputID)
	require.NoError(t, err)

	input.Trigger(nil, models.Message{Data: 15, Context: map[string]any{"user": "bob"}})

	assert.Equal(t, "bob sent 15", n.Last())
	assert.Contains(t, buf.String(), `level=WARN msg="bob sent 15"`)

	var found bool
	for _, entry := range activity.Entries() {
		if entry.Text == "bob sent 15" {
			found = true

			assert.Equal(t, tracing.KindWarning, entry.Kind)
		}
	}

	assert.True(t, found)
}

func TestDefaults(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, "core/console", f.ID().String())
	assert.Equal(t, "{{ .data }}", f.Defaults()["message"])
}
