package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectNotFound indicates a project was not found by the given identifier.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidProject indicates a stored document could not be decoded as a project.
	ErrInvalidProject = errors.New("invalid project")

	// ErrUnsupportedFormat indicates a document format other than JSON or YAML.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ProjectError wraps project-related errors with additional context.
type ProjectError struct {
	Op        string
	ProjectID string
	Err       error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s operation failed for project %s: %v", e.Op, e.ProjectID, e.Err)
}

func (e *ProjectError) Unwrap() error {
	return e.Err
}

func (e *ProjectError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewProjectError(op, projectID string, err error) *ProjectError {
	return &ProjectError{Op: op, ProjectID: projectID, Err: err}
}

// IsProjectNotFound checks if an error indicates a project was not found.
func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}
