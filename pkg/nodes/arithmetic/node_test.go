package arithmetic

import (
	"testing"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T, operation string, errorSink tracing.Sink) *Node {
	t.Helper()

	params := module.Params{
		ModuleID: "arithmetic",
		Schema:   Schema,
		Configuration: models.ModuleConfiguration{
			Data: map[string]any{"operation": operation},
		},
	}
	if errorSink != nil {
		params.ErrorSinks = []tracing.Sink{errorSink}
	}

	n, err := New(params)
	require.NoError(t, err)

	return n
}

func trigger(t *testing.T, n *Node, message models.Message) {
	t.Helper()

	input, err := n.GetInputSlot(module.DefaultInputID)
	require.NoError(t, err)

	input.Trigger(nil, message)
}

func TestOperations(t *testing.T) {
	tests := []struct {
		operation string
		operands  []any
		expected  float64
	}{
		{OperationSum, []any{5, 10}, 15},
		{OperationSubtract, []any{5, 10}, -5},
		{OperationProduct, []any{5, 10}, 50},
		{OperationDivide, []any{10, 4}, 2.5},
		{OperationModulo, []any{10, 4}, 2},
		{OperationPower, []any{2, 10}, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			n := newNode(t, tt.operation, nil)
			trigger(t, n, models.Message{Data: tt.operands})

			last, ok := n.Output().Slot().Last()
			require.True(t, ok)
			assert.Equal(t, tt.expected, last.Data)
		})
	}
}

func TestExtraElementsTolerated(t *testing.T) {
	n := newNode(t, OperationSum, nil)
	trigger(t, n, models.Message{Data: []any{5, 2, "aa"}})

	last, ok := n.Output().Slot().Last()
	require.True(t, ok)
	assert.Equal(t, 7.0, last.Data)
}

func TestResultIsCached(t *testing.T) {
	n := newNode(t, OperationSum, nil)

	var fromCache []any
	n.Output().Slot().Subscribe(func(message models.Message) {
		fromCache = append(fromCache, message.Context["fromCache"])
	})

	trigger(t, n, models.Message{Data: []any{1, 2}})
	trigger(t, n, models.Message{Data: []any{1, 2}})

	assert.Equal(t, []any{false, true}, fromCache)
}

func TestConfigurationOverride(t *testing.T) {
	n := newNode(t, OperationSum, nil)
	trigger(t, n, models.Message{Data: []any{3, 4}, Configuration: map[string]any{"operation": OperationProduct}})

	last, _ := n.Output().Slot().Last()
	assert.Equal(t, 12.0, last.Data)
}

func TestDivisionByZero(t *testing.T) {
	errs := tracing.NewMemorySink()
	n := newNode(t, OperationDivide, errs)
	trigger(t, n, models.Message{Data: []any{1, 0}})

	_, emitted := n.Output().Slot().Last()
	assert.False(t, emitted)

	require.NotEmpty(t, errs.Entries())
	assert.ErrorIs(t, errs.Last().Err, ErrDivisionByZero)
	assert.Equal(t, "input processing", errs.Last().Context.Title())
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, "core/arithmetic", f.ID().String())
	assert.Equal(t, map[string]any{"operation": OperationSum}, f.Defaults())

	node, err := f.Create(module.Params{ModuleID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", node.Base().ID())
}
