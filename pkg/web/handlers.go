package web

import (
	"net/http"
	"time"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/registry"
	"github.com/dukex/fluxrt/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	repository *workflow.Repository
	manager    *workflow.Manager
	registry   *registry.Registry
	validator  *validator.Validate
}

func NewAPIHandlers(
	repository *workflow.Repository,
	manager *workflow.Manager,
	registry *registry.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		repository: repository,
		manager:    manager,
		registry:   registry,
		validator:  validator,
	}
}

// Routes mounts the handlers on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/factories", h.GetFactories)

	p := router.Group("/projects")
	p.Get("/", h.GetProjects)
	p.Post("/", h.CreateProject)
	p.Get("/:id", h.GetProject)
	p.Delete("/:id", h.DeleteProject)
	p.Post("/:id/start", h.StartProject)
	p.Post("/:id/stop", h.StopProject)
	p.Patch("/:id/connections", h.UpdateConnections)
	p.Get("/:id/modules", h.GetModules)
	p.Get("/:id/modules/:moduleId", h.GetModule)
	p.Get("/:id/modules/:moduleId/journals", h.GetJournals)
	p.Post("/:id/modules/:moduleId/inputs/:slotId", h.InjectMessage)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.repository.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"running":   h.manager.Running(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetFactories(c fiber.Ctx) error {
	factories := h.registry.Factories()
	response := make([]FactoryResponse, 0, len(factories))

	for _, factory := range factories {
		response = append(response, TransformFactoryResponse(factory))
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetProjects(c fiber.Ctx) error {
	projects, err := h.repository.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(projects)
}

func (h *APIHandlers) GetProject(c fiber.Ctx) error {
	project, err := h.repository.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(project)
}

func (h *APIHandlers) CreateProject(c fiber.Ctx) error {
	var project models.Project
	if err := c.Bind().JSON(&project); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.repository.Create(c.Context(), &project)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteProject(c fiber.Ctx) error {
	id := c.Params("id")

	if _, err := h.manager.Get(id); err == nil {
		if err := h.manager.Stop(c.Context(), id); err != nil {
			return internalError(c, err)
		}
	}

	if err := h.repository.Delete(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) StartProject(c fiber.Ctx) error {
	w, err := h.manager.Run(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	skipped := make([]fiber.Map, 0, len(w.Skipped()))
	for _, s := range w.Skipped() {
		skipped = append(skipped, fiber.Map{"connection": s.Connection.ID(), "error": s.Err.Error()})
	}

	return c.JSON(fiber.Map{
		"project":     w.Project().ID,
		"modules":     len(w.Modules()),
		"connections": len(w.Connections()),
		"skipped":     skipped,
	})
}

func (h *APIHandlers) StopProject(c fiber.Ctx) error {
	if err := h.manager.Stop(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateConnections(c fiber.Ctx) error {
	w, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req UpdateConnectionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := w.UpdateConnections(req.Created, req.Removed); err != nil {
		return badRequest(c, err.Error())
	}

	ids := make([]string, 0, len(w.Connections()))
	for _, conn := range w.Connections() {
		ids = append(ids, conn.ID())
	}

	return c.JSON(fiber.Map{"connections": ids})
}

func (h *APIHandlers) GetModules(c fiber.Ctx) error {
	w, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	modules := w.Modules()
	response := make([]ModuleResponse, 0, len(modules))

	for _, node := range modules {
		response = append(response, TransformModuleResponse(node))
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetModule(c fiber.Ctx) error {
	w, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	node, err := w.Module(c.Params("moduleId"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(TransformModuleResponse(node))
}

func (h *APIHandlers) GetJournals(c fiber.Ctx) error {
	w, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	node, err := w.Module(c.Params("moduleId"))
	if err != nil {
		return handleError(c, err)
	}

	journals := node.Base().Journals()
	response := make([]JournalResponse, 0, len(journals))

	for _, journal := range journals {
		response = append(response, TransformJournalResponse(journal))
	}

	return c.JSON(response)
}

// InjectMessage processes the request body as a message on an input slot. Processing
// failures reach the error sinks of the module, not the response.
func (h *APIHandlers) InjectMessage(c fiber.Ctx) error {
	w, err := h.manager.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req InjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	message := models.Message{Data: req.Data, Configuration: req.Configuration, Context: req.Context}

	if err := w.Inject(c.Params("moduleId"), c.Params("slotId"), message); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}
