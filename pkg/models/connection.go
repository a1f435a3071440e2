package models

import "fmt"

// MappingFunc transforms a message before it reaches the contract of an input slot.
type MappingFunc func(message Message) (Message, error)

// ModuleConfiguration is the configuration of a module instance.
type ModuleConfiguration struct {
	Title       string         `json:"title"                 yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Data        map[string]any `json:"data"                  yaml:"data"`
}

// Adaptor is a mapping applied to the messages crossing a connection. Its source is
// the "code" attribute of its configuration data; Mapping is set once compiled.
type Adaptor struct {
	ID            string              `json:"adaptorId"     yaml:"adaptorId"     validate:"required"`
	Configuration ModuleConfiguration `json:"configuration" yaml:"configuration"`
	Mapping       MappingFunc         `json:"-"             yaml:"-"`
}

// Code returns the source of the mapping, empty when none is configured.
func (a *Adaptor) Code() string {
	code, _ := a.Configuration.Data["code"].(string)

	return code
}

// Apply runs the compiled mapping; an adaptor not compiled yet leaves the message unchanged.
func (a *Adaptor) Apply(message Message) (Message, error) {
	if a.Mapping == nil {
		return message, nil
	}

	return a.Mapping(message)
}

// Connection wires an output slot to an input slot.
type Connection struct {
	Start   SlotRef  `json:"start"             yaml:"start"             validate:"required"`
	End     SlotRef  `json:"end"               yaml:"end"               validate:"required"`
	Adaptor *Adaptor `json:"adaptor,omitempty" yaml:"adaptor,omitempty"`
}

// ID is unique within a workflow: "{endSlotId}@{endModuleId}-{startSlotId}@{startModuleId}".
func (c *Connection) ID() string {
	return fmt.Sprintf("%s-%s", c.End, c.Start)
}
