package module

import (
	"fmt"

	"github.com/dukex/fluxrt/pkg/broadcast"
	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/contract"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/tracing"
)

const (
	DefaultInputID     = "input"
	DefaultOutputID    = "output"
	defaultDescription = "no description available"
)

// Slot is an input or output port of a module.
type Slot interface {
	ID() string
	ModuleID() string
	Direction() models.SlotDirection
}

// Input is what an input callback receives: the value resolved by the contract,
// the merged configuration and the context of the processing stage.
type Input struct {
	Data          any
	Configuration map[string]any
	Context       *tracing.Context
}

// Callback processes the input of a slot. A returned error aborts the message.
type Callback func(input Input, c *cache.Cache) error

// InputSpec declares an input slot.
type InputSpec struct {
	ID          string
	Description string
	Contract    contract.Expectation
	OnTriggered Callback
}

// InputSlot validates incoming messages with its contract before triggering its callback.
type InputSlot struct {
	id          string
	description string
	contract    contract.Expectation
	onTriggered Callback
	module      *Module
}

func (s *InputSlot) ID() string                      { return s.id }
func (s *InputSlot) ModuleID() string                { return s.module.id }
func (s *InputSlot) Direction() models.SlotDirection { return models.SlotDirectionInput }
func (s *InputSlot) Description() string             { return s.description }
func (s *InputSlot) Contract() contract.Expectation  { return s.contract }

// OutputSlot broadcasts the messages emitted by its module; late subscribers get
// the last emitted message first.
type OutputSlot struct {
	id     string
	stream *broadcast.Channel[models.Message]
	module *Module
}

func (s *OutputSlot) ID() string                      { return s.id }
func (s *OutputSlot) ModuleID() string                { return s.module.id }
func (s *OutputSlot) Direction() models.SlotDirection { return models.SlotDirectionOutput }

// Subscribe registers fn for the messages emitted on the slot.
func (s *OutputSlot) Subscribe(fn func(models.Message)) broadcast.Subscription {
	return s.stream.Subscribe(fn)
}

// Last returns the last message emitted on the slot.
func (s *OutputSlot) Last() (models.Message, bool) {
	return s.stream.Last()
}

func (s *OutputSlot) Subscribers() int {
	return s.stream.Subscribers()
}

// Output is the handle a module uses to emit on one of its output slots.
type Output struct {
	slot *OutputSlot
}

func (o *Output) Slot() *OutputSlot { return o.slot }

// Emit sends data downstream. When ctx is not nil the emission is logged on it and
// its user context travels with the message.
func (o *Output) Emit(data any, ctx *tracing.Context) {
	o.EmitWithConfiguration(data, nil, ctx)
}

// EmitWithConfiguration is Emit with configuration overrides for the receiving modules.
func (o *Output) EmitWithConfiguration(data any, configuration map[string]any, ctx *tracing.Context) {
	message := models.Message{Data: data, Configuration: configuration, Context: map[string]any{}}

	if ctx != nil {
		ctx.Info("emit output", data)
		message.Context = ctx.UserContext()
	}

	o.slot.module.logger.Debug("send output", "slot", o.slot.id)
	o.slot.stream.Publish(message)
}

// AddInput declares an input slot. The id defaults to "input".
func (m *Module) AddInput(spec InputSpec) (*InputSlot, error) {
	if spec.ID == "" {
		spec.ID = DefaultInputID
	}

	if spec.Description == "" {
		spec.Description = defaultDescription
	}

	if spec.Contract == nil {
		spec.Contract = contract.Free()
	}

	if spec.OnTriggered == nil {
		return nil, fmt.Errorf("input %s of module %s: missing callback", spec.ID, m.id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slotLocked(spec.ID) != nil {
		return nil, fmt.Errorf("input %s of module %s: %w", spec.ID, m.id, ErrDuplicateSlot)
	}

	slot := &InputSlot{
		id:          spec.ID,
		description: spec.Description,
		contract:    spec.Contract,
		onTriggered: spec.OnTriggered,
		module:      m,
	}
	m.inputs = append(m.inputs, slot)

	return slot, nil
}

// AddOutput declares an output slot and returns its emission handle. The id defaults to "output".
func (m *Module) AddOutput(id string) (*Output, error) {
	if id == "" {
		id = DefaultOutputID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slotLocked(id) != nil {
		return nil, fmt.Errorf("output %s of module %s: %w", id, m.id, ErrDuplicateSlot)
	}

	slot := &OutputSlot{id: id, stream: broadcast.New[models.Message](), module: m}
	m.outputs = append(m.outputs, slot)

	return &Output{slot: slot}, nil
}

func (m *Module) slotLocked(id string) Slot {
	for _, slot := range m.inputs {
		if slot.id == id {
			return slot
		}
	}

	for _, slot := range m.outputs {
		if slot.id == id {
			return slot
		}
	}

	return nil
}

// GetSlot returns the input or output slot with the given id.
func (m *Module) GetSlot(id string) (Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if slot := m.slotLocked(id); slot != nil {
		return slot, nil
	}

	return nil, fmt.Errorf("slot %s of module %s: %w", id, m.id, ErrSlotNotFound)
}

func (m *Module) GetInputSlot(id string) (*InputSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, slot := range m.inputs {
		if slot.id == id {
			return slot, nil
		}
	}

	return nil, fmt.Errorf("input %s of module %s: %w", id, m.id, ErrSlotNotFound)
}

func (m *Module) GetOutputSlot(id string) (*OutputSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, slot := range m.outputs {
		if slot.id == id {
			return slot, nil
		}
	}

	return nil, fmt.Errorf("output %s of module %s: %w", id, m.id, ErrSlotNotFound)
}

func (m *Module) InputSlots() []*InputSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*InputSlot(nil), m.inputs...)
}

func (m *Module) OutputSlots() []*OutputSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*OutputSlot(nil), m.outputs...)
}
