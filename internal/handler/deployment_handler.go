package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/service"
	"github.com/modu-camp/quizdeck-api/internal/utils"
)

// DeploymentHandler wires deployment lifecycle HTTP routes.
type DeploymentHandler struct {
	service service.DeploymentService
	logger  zerolog.Logger
}

// NewDeploymentHandler constructs the handler.
func NewDeploymentHandler(service service.DeploymentService, logger zerolog.Logger) *DeploymentHandler {
	return &DeploymentHandler{
		service: service,
		logger:  logger.With().Str("component", "deployment_handler").Logger(),
	}
}

// RegisterAdmin attaches the admin-only lifecycle endpoints.
func (h *DeploymentHandler) RegisterAdmin(router fiber.Router, guard fiber.Handler) {
	router.Post("/deployments", guard, h.create)
	router.Get("/deployments/:id", guard, h.get)
	router.Get("/quizzes/:quizId/deployments", guard, h.listByQuiz)
	router.Patch("/deployments/:id/toggle", guard, h.toggle)
	router.Delete("/deployments/:id", guard, h.delete)
}

// RegisterStudent attaches the student-facing entry endpoint, optionally
// wrapped in extra middleware such as a rate limiter.
func (h *DeploymentHandler) RegisterStudent(router fiber.Router, extra ...fiber.Handler) {
	handlers := append(extra, h.validateAccess)
	router.Post("/deployments/:id/access", handlers...)
}

func (h *DeploymentHandler) create(c *fiber.Ctx) error {
	var payload dto.DeploymentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	deployment, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz deployed", deployment)
}

func (h *DeploymentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	deployment, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deployment retrieved", deployment)
}

func (h *DeploymentHandler) listByQuiz(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	deployments, err := h.service.ListByQuiz(c.Context(), quizID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deployments retrieved", deployments)
}

func (h *DeploymentHandler) toggle(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.service.Toggle(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deployment status toggled", status)
}

func (h *DeploymentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "deployment deleted", fiber.Map{"id": id})
}

func (h *DeploymentHandler) validateAccess(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AccessRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	info, err := h.service.ValidateAccess(c.Context(), id, payload.Code)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "access granted", info)
}

func (h *DeploymentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDeploymentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "deployment not found")
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrCohortNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "cohort not found")
	case errors.Is(err, service.ErrInvalidWindow):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidAccessCode):
		return utils.SendError(c, fiber.StatusForbidden, "invalid access code")
	case errors.Is(err, service.ErrDeploymentInactive):
		return utils.SendError(c, fiber.StatusForbidden, "deployment is deactivated")
	case errors.Is(err, service.ErrDeploymentNotOpen):
		return utils.SendError(c, fiber.StatusForbidden, "deployment is not open yet")
	case errors.Is(err, service.ErrDeploymentClosed):
		return utils.SendError(c, fiber.StatusForbidden, "deployment is closed")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *DeploymentHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
