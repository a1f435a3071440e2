package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument indicates a project document does not have the expected shape.
var ErrInvalidDocument = errors.New("invalid project document")

const slotRefSchema = `{
	"type": "object",
	"required": ["moduleId", "slotId"],
	"properties": {
		"moduleId": {"type": "string", "minLength": 1},
		"slotId": {"type": "string", "minLength": 1}
	}
}`

const configurationSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"},
		"data": {"type": ["object", "null"]}
	}
}`

const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"workflow": {
			"type": "object",
			"properties": {
				"modules": {
					"type": ["array", "null"],
					"items": {
						"type": "object",
						"required": ["moduleId", "factoryId"],
						"properties": {
							"moduleId": {"type": "string", "minLength": 1},
							"factoryId": {
								"type": "object",
								"required": ["pack", "module"],
								"properties": {
									"pack": {"type": "string", "minLength": 1},
									"module": {"type": "string", "minLength": 1}
								}
							},
							"configuration": ` + configurationSchema + `
						}
					}
				},
				"connections": {
					"type": ["array", "null"],
					"items": {
						"type": "object",
						"required": ["start", "end"],
						"properties": {
							"start": ` + slotRefSchema + `,
							"end": ` + slotRefSchema + `,
							"adaptor": {
								"type": "object",
								"required": ["adaptorId"],
								"properties": {
									"adaptorId": {"type": "string", "minLength": 1},
									"configuration": ` + configurationSchema + `
								}
							}
						}
					}
				}
			}
		}
	}
}`

// ValidateDocument checks the shape of a raw JSON or YAML project document before it is decoded.
func ValidateDocument(raw []byte) error {
	var document any

	unmarshal := yaml.Unmarshal
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		unmarshal = json.Unmarshal
	}

	if err := unmarshal(raw, &document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(messages, "; "))
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct constraints of a decoded project and the uniqueness of
// its module ids.
func Validate(project *models.Project) error {
	if err := validate.Struct(project); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	seen := make(map[string]bool, len(project.Workflow.Modules))

	for _, view := range project.Workflow.Modules {
		if seen[view.ModuleID] {
			return fmt.Errorf("%w: duplicate module id %s", ErrInvalidDocument, view.ModuleID)
		}

		seen[view.ModuleID] = true
	}

	return nil
}
