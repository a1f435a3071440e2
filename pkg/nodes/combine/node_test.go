package combine

import (
	"testing"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T, data map[string]any) *Node {
	t.Helper()

	n, err := New(module.Params{
		ModuleID:      "combine",
		Schema:        Schema,
		Configuration: models.ModuleConfiguration{Data: data},
	})
	require.NoError(t, err)

	return n
}

func send(t *testing.T, n *Node, index int, data any) {
	t.Helper()

	input, err := n.GetInputSlot(InputID(index))
	require.NoError(t, err)

	input.Trigger(nil, models.Message{Data: data})
}

func TestModeAllWaitsForEveryInput(t *testing.T) {
	n := newNode(t, map[string]any{"inputs": 3, "mode": ModeAll})

	var emitted [][]any
	n.Output().Slot().Subscribe(func(message models.Message) {
		emitted = append(emitted, message.Data.([]any))
	})

	send(t, n, 0, "a")
	send(t, n, 2, "c")
	assert.Empty(t, emitted)

	send(t, n, 1, "b")
	send(t, n, 0, "A")

	assert.Equal(t, [][]any{{"a", "b", "c"}, {"A", "b", "c"}}, emitted)
}

func TestModeAny(t *testing.T) {
	n := newNode(t, map[string]any{"inputs": 2, "mode": ModeAny})
	send(t, n, 1, 7)

	last, ok := n.Output().Slot().Last()
	require.True(t, ok)
	assert.Equal(t, []any{nil, 7}, last.Data)
}

func TestInputsFromFloat(t *testing.T) {
	n := newNode(t, map[string]any{"inputs": 4.0})
	assert.Len(t, n.InputSlots(), 4)
}

func TestRejectsZeroInputs(t *testing.T) {
	_, err := New(module.Params{Configuration: models.ModuleConfiguration{Data: map[string]any{"inputs": 0}}})
	require.Error(t, err)
}
