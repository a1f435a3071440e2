// Package file provides file-based persistence for projects: one JSON or YAML
// document per project under <root>/projects.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/persistence"
)

const projectsDir = "projects"

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root   string
	format persistence.Format
}

// NewPersistence creates a store rooted at root; a "file://" prefix is ignored.
// New projects are written in format.
func NewPersistence(root string, format persistence.Format) *Persistence {
	if format == "" {
		format = persistence.FormatJSON
	}

	return &Persistence{root: strings.TrimPrefix(root, "file://"), format: format}
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); err != nil {
		return fmt.Errorf("file persistence: %w", err)
	}

	return nil
}

func (fp *Persistence) dir() string {
	return filepath.Join(fp.root, projectsDir)
}

// Projects loads every project document, sorted by id.
func (fp *Persistence) Projects(ctx context.Context) ([]*models.Project, error) {
	entries, err := os.ReadDir(fp.dir())
	if errors.Is(err, fs.ErrNotExist) {
		return []*models.Project{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]*models.Project, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		format, err := persistence.FormatOf(entry.Name())
		if err != nil {
			continue
		}

		project, err := fp.read(filepath.Join(fp.dir(), entry.Name()), format)
		if err != nil {
			return nil, err
		}

		projects = append(projects, project)
	}

	slices.SortFunc(projects, func(a, b *models.Project) int {
		return strings.Compare(a.ID, b.ID)
	})

	return projects, nil
}

func (fp *Persistence) read(path string, format persistence.Format) (*models.Project, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	project, err := persistence.Decode(raw, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return project, nil
}

// locate returns the path of the document holding id, whatever its extension.
func (fp *Persistence) locate(id string) (string, persistence.Format, bool) {
	for _, format := range []persistence.Format{persistence.FormatJSON, persistence.FormatYAML} {
		for _, ext := range extensions(format) {
			path := filepath.Join(fp.dir(), id+ext)
			if _, err := os.Stat(path); err == nil {
				return path, format, true
			}
		}
	}

	return "", "", false
}

func extensions(format persistence.Format) []string {
	if format == persistence.FormatYAML {
		return []string{".yaml", ".yml"}
	}

	return []string{".json"}
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func (fp *Persistence) ProjectByID(_ context.Context, id string) (*models.Project, error) {
	if !validID(id) {
		return nil, persistence.NewProjectError("ProjectByID", id, persistence.ErrProjectNotFound)
	}

	path, format, ok := fp.locate(id)
	if !ok {
		return nil, persistence.NewProjectError("ProjectByID", id, persistence.ErrProjectNotFound)
	}

	project, err := fp.read(path, format)
	if err != nil {
		return nil, persistence.NewProjectError("ProjectByID", id, err)
	}

	return project, nil
}

// SaveProject writes the project, keeping the format of an existing document.
func (fp *Persistence) SaveProject(_ context.Context, project *models.Project) error {
	if !validID(project.ID) {
		return persistence.NewProjectError("SaveProject", project.ID, persistence.ErrInvalidProject)
	}

	if err := os.MkdirAll(fp.dir(), 0o750); err != nil {
		return fmt.Errorf("failed to create projects directory: %w", err)
	}

	path, format, ok := fp.locate(project.ID)
	if !ok {
		format = fp.format
		path = filepath.Join(fp.dir(), project.ID+extensions(format)[0])
	}

	raw, err := persistence.Encode(project, format)
	if err != nil {
		return persistence.NewProjectError("SaveProject", project.ID, err)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return persistence.NewProjectError("SaveProject", project.ID, err)
	}

	return nil
}

func (fp *Persistence) DeleteProject(_ context.Context, id string) error {
	if !validID(id) {
		return persistence.NewProjectError("DeleteProject", id, persistence.ErrProjectNotFound)
	}

	path, _, ok := fp.locate(id)
	if !ok {
		return persistence.NewProjectError("DeleteProject", id, persistence.ErrProjectNotFound)
	}

	if err := os.Remove(path); err != nil {
		return persistence.NewProjectError("DeleteProject", id, err)
	}

	return nil
}

// LoadFile reads a single project document, e.g. one passed on the command line.
func LoadFile(path string) (*models.Project, error) {
	format, err := persistence.FormatOf(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", path, err)
	}

	return persistence.Decode(raw, format)
}
