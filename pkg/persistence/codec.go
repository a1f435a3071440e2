package persistence

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dukex/fluxrt/pkg/models"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a project document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Decode parses a project document.
func Decode(raw []byte, format Format) (*models.Project, error) {
	var project models.Project

	var err error

	switch format {
	case FormatJSON:
		err = json.Unmarshal(raw, &project)
	case FormatYAML:
		err = yaml.Unmarshal(raw, &project)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}

	return &project, nil
}

// Encode serializes a project document.
func Encode(project *models.Project, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(project, "", "  ")
	case FormatYAML:
		return yaml.Marshal(project)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
