package subscription

import (
	"testing"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	source   *module.Module
	output   *module.Output
	sink     *module.Module
	received []any
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{}

	var err error

	f.source, err = module.New(module.Params{ModuleID: "source"})
	require.NoError(t, err)

	f.output, err = f.source.AddOutput("")
	require.NoError(t, err)

	f.sink, err = module.New(module.Params{ModuleID: "sink"})
	require.NoError(t, err)

	_, err = f.sink.AddInput(module.InputSpec{OnTriggered: func(in module.Input, _ *cache.Cache) error {
		f.received = append(f.received, in.Data)

		return nil
	}})
	require.NoError(t, err)

	return f
}

func (f *fixture) modules() []module.Node {
	return []module.Node{f.source, f.sink}
}

func connection(startModule, endModule string) models.Connection {
	return models.Connection{
		Start: models.SlotRef{ModuleID: startModule, SlotID: module.DefaultOutputID},
		End:   models.SlotRef{ModuleID: endModule, SlotID: module.DefaultInputID},
	}
}

func TestSubscribeDelivers(t *testing.T) {
	f := newFixture(t)
	store := NewStore(nil)

	require.NoError(t, store.Subscribe(f.modules(), []models.Connection{connection("source", "sink")}))
	assert.True(t, store.Has("input@sink-output@source"))

	f.output.Emit(1, nil)
	f.output.Emit(2, nil)

	assert.Equal(t, []any{1, 2}, f.received)
}

func TestSubscribeReplaysLastEmission(t *testing.T) {
	f := newFixture(t)
	f.output.Emit("early", nil)

	store := NewStore(nil)
	require.NoError(t, store.Subscribe(f.modules(), []models.Connection{connection("source", "sink")}))

	assert.Equal(t, []any{"early"}, f.received)
}

func TestSubscribeNeverDoubles(t *testing.T) {
	f := newFixture(t)
	store := NewStore(nil)
	conn := connection("source", "sink")

	require.NoError(t, store.Subscribe(f.modules(), []models.Connection{conn}))
	require.NoError(t, store.Update(f.modules(), []models.Connection{conn}, nil))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, f.output.Slot().Subscribers())

	f.output.Emit(1, nil)
	assert.Equal(t, []any{1}, f.received)
}

func TestUpdateRemovesConnections(t *testing.T) {
	f := newFixture(t)
	store := NewStore(nil)
	conn := connection("source", "sink")

	require.NoError(t, store.Subscribe(f.modules(), []models.Connection{conn}))
	require.NoError(t, store.Update(f.modules(), nil, []models.Connection{conn}))

	assert.Zero(t, store.Len())

	f.output.Emit(1, nil)
	assert.Empty(t, f.received)
}

func TestSubscribeSkipsUnknownSlots(t *testing.T) {
	f := newFixture(t)
	store := NewStore(nil)

	bad := connection("source", "sink")
	bad.End.SlotID = "missing"

	err := store.Subscribe(f.modules(), []models.Connection{
		connection("ghost", "sink"),
		bad,
		connection("source", "sink"),
	})
	require.ErrorIs(t, err, module.ErrModuleNotFound)
	require.ErrorIs(t, err, module.ErrSlotNotFound)

	assert.Equal(t, 1, store.Len())
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	store := NewStore(nil)

	require.NoError(t, store.Subscribe(f.modules(), []models.Connection{connection("source", "sink")}))
	store.Clear()

	assert.Zero(t, store.Len())
	assert.Zero(t, f.output.Slot().Subscribers())
}
