// Package web provides the HTTP API inspecting and driving running projects.
package web

import (
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/registry"
	"github.com/dukex/fluxrt/pkg/schema"
	"github.com/dukex/fluxrt/pkg/tracing"
)

// FactoryResponse describes a registered module factory.
type FactoryResponse struct {
	ID          string             `json:"id"`
	FactoryID   models.FactoryID   `json:"factoryId"`
	Description string             `json:"description"`
	Defaults    map[string]any     `json:"defaults"`
	Schema      *schema.JSONSchema `json:"schema,omitempty"`
}

func TransformFactoryResponse(factory registry.Factory) FactoryResponse {
	response := FactoryResponse{
		ID:          factory.ID().String(),
		FactoryID:   factory.ID(),
		Description: factory.Description(),
		Defaults:    factory.Defaults(),
	}

	if descriptor := factory.Schema(); descriptor != nil {
		response.Schema = descriptor.JSONSchema()
	}

	return response
}

// SlotResponse describes a slot of a running module.
type SlotResponse struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Subscribers *int   `json:"subscribers,omitempty"`
}

// LogResponse is a log entry without its context.
type LogResponse struct {
	Kind tracing.Kind `json:"kind"`
	Text string       `json:"text"`
	Data any          `json:"data,omitempty"`
}

// ModuleResponse describes a running module.
type ModuleResponse struct {
	ID            string                     `json:"id"`
	FactoryID     models.FactoryID           `json:"factoryId"`
	Configuration models.ModuleConfiguration `json:"configuration"`
	Inputs        []SlotResponse             `json:"inputs"`
	Outputs       []SlotResponse             `json:"outputs"`
	LastLog       *LogResponse               `json:"lastLog,omitempty"`
	CacheSize     int                        `json:"cacheSize"`
}

func TransformModuleResponse(node module.Node) ModuleResponse {
	m := node.Base()

	response := ModuleResponse{
		ID:            m.ID(),
		FactoryID:     m.FactoryID(),
		Configuration: m.Configuration(),
		Inputs:        []SlotResponse{},
		Outputs:       []SlotResponse{},
		CacheSize:     m.Cache().Len(),
	}

	for _, input := range m.InputSlots() {
		response.Inputs = append(response.Inputs, SlotResponse{ID: input.ID(), Description: input.Description()})
	}

	for _, output := range m.OutputSlots() {
		subscribers := output.Subscribers()
		response.Outputs = append(response.Outputs, SlotResponse{ID: output.ID(), Subscribers: &subscribers})
	}

	if entry := m.LastLog(); entry != nil {
		response.LastLog = &LogResponse{Kind: entry.Kind, Text: entry.Text, Data: entry.Data}
	}

	return response
}

// JournalResponse is a journal with the trace of its latest execution.
type JournalResponse struct {
	Title    string        `json:"title"`
	Abstract string        `json:"abstract,omitempty"`
	Trace    *tracing.Node `json:"trace,omitempty"`
}

func TransformJournalResponse(journal tracing.Journal) JournalResponse {
	response := JournalResponse{Title: journal.Title, Abstract: journal.Abstract}

	if journal.EntryPoint != nil {
		response.Trace = journal.EntryPoint.Snapshot()
	}

	return response
}

// InjectRequest is the message injected on an input slot.
type InjectRequest struct {
	Data          any            `json:"data"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
}

// UpdateConnectionsRequest lists the connections to wire and unwire.
type UpdateConnectionsRequest struct {
	Created []*models.Connection `json:"created" validate:"dive"`
	Removed []*models.Connection `json:"removed" validate:"dive"`
}
