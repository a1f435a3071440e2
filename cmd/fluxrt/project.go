package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/persistence"
	"github.com/dukex/fluxrt/pkg/workflow"
)

// isProjectFile reports whether ref names a project document on disk rather than a stored project id.
func isProjectFile(ref string) bool {
	if _, err := persistence.FormatOf(ref); err != nil {
		return false
	}

	info, err := os.Stat(ref)

	return err == nil && !info.IsDir()
}

// loadProjectFile reads, shape-checks and decodes a project document.
func loadProjectFile(path string) (*models.Project, error) {
	format, err := persistence.FormatOf(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	if err := workflow.ValidateDocument(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return persistence.Decode(raw, format)
}
