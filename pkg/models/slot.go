// Package models defines the data exchanged between modules and the persisted shape of a project.
package models

import "strings"

// SlotRef identifies a slot of a module.
type SlotRef struct {
	ModuleID string `json:"moduleId" yaml:"moduleId" validate:"required"`
	SlotID   string `json:"slotId"   yaml:"slotId"   validate:"required"`
}

// String formats the reference as "{slotId}@{moduleId}".
func (r SlotRef) String() string {
	return r.SlotID + "@" + r.ModuleID
}

// ParseSlotRef parses a reference in format "{slotId}@{moduleId}".
func ParseSlotRef(ref string) (SlotRef, bool) {
	slotID, moduleID, ok := strings.Cut(ref, "@")
	if !ok || slotID == "" || moduleID == "" {
		return SlotRef{}, false
	}

	return SlotRef{ModuleID: moduleID, SlotID: slotID}, true
}

// SlotDirection represents the direction of data flow for a slot.
type SlotDirection string

const (
	SlotDirectionInput  SlotDirection = "input"
	SlotDirectionOutput SlotDirection = "output"
)

// Message is the unit of data flowing through a connection.
//
// Configuration is an optional fragment overriding the persistent data of the
// receiving module; Context is the user context propagated along the graph.
type Message struct {
	Data          any            `json:"data"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
}
