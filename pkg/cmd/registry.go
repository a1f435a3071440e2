// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/fluxrt/pkg/registry"
)

// NewRegistry creates a registry holding the built-in node factories.
func NewRegistry(log *slog.Logger) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if err := reg.RegisterDefaultNodes(); err != nil {
		return nil, fmt.Errorf("failed to register built-in nodes: %w", err)
	}

	return reg, nil
}
