package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema represents a JSON Schema for configuration validation
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Items       *Property            `json:"items,omitempty"`
}

// JSONSchema exports the descriptor, inherited attributes included. Attributes are
// not required: missing values are reported by the configuration merge.
func (d *Descriptor) JSONSchema() *JSONSchema {
	return &JSONSchema{
		Type:       "object",
		Title:      d.Name,
		Properties: d.properties(),
	}
}

func (d *Descriptor) properties() map[string]*Property {
	properties := map[string]*Property{}

	for i := len(d.Extends) - 1; i >= 0; i-- {
		for name, property := range d.Extends[i].properties() {
			properties[name] = property
		}
	}

	for _, attribute := range d.Attributes {
		properties[attribute.Name] = attribute.property()
	}

	return properties
}

func (a *Attribute) property() *Property {
	property := &Property{Description: a.Metadata.Description}

	switch {
	case a.Schema != nil:
		property.Type = "object"
		property.Properties = a.Schema.properties()
	case a.Type == TypeString:
		property.Type = "string"

		for _, value := range a.Metadata.Enum {
			property.Enum = append(property.Enum, value)
		}
	case a.Type == TypeNumber && a.Metadata.Type == MetaInteger:
		property.Type = "integer"
	case a.Type == TypeNumber:
		property.Type = "number"
	case a.Type == TypeBoolean:
		property.Type = "boolean"
	case a.Type == TypeList:
		property.Type = "array"

		if a.Items != nil {
			property.Items = a.Items.itemProperty()
		}
	}

	return property
}

// itemProperty describes a list element. Unlike top-level attributes, every attribute
// of an element is required.
func (d *Descriptor) itemProperty() *Property {
	properties := d.properties()

	return &Property{
		Type:       "object",
		Properties: properties,
		Required:   slices.Sorted(maps.Keys(properties)),
	}
}

// Validate checks instance against the exported JSON Schema.
func (d *Descriptor) Validate(instance map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(d.JSONSchema())
	dataLoader := gojsonschema.NewGoLoader(instance)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, resultError := range result.Errors() {
			errors = append(errors, resultError.String())
		}

		return fmt.Errorf("schema %s: validation failed: %s", d.Name, strings.Join(errors, "; "))
	}

	return nil
}
