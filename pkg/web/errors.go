package web

import (
	"errors"

	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/persistence"
	"github.com/dukex/fluxrt/pkg/registry"
	"github.com/dukex/fluxrt/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, kind, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleError maps the errors of the runtime to problem responses.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsProjectNotFound(err):
		return notFound(c, "project_not_found", "project not found")

	case errors.Is(err, workflow.ErrNotRunning):
		return notFound(c, "project_not_running", err.Error())

	case errors.Is(err, module.ErrModuleNotFound):
		return notFound(c, "module_not_found", err.Error())

	case errors.Is(err, module.ErrSlotNotFound):
		return notFound(c, "slot_not_found", err.Error())

	case errors.Is(err, workflow.ErrInvalidDocument),
		errors.Is(err, registry.ErrFactoryNotFound),
		module.IsConfigurationInconsistent(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_project").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	default:
		return internalError(c, err)
	}
}
