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

// SubmissionHandler wires submission HTTP routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterStudent attaches the student-facing submission endpoints.
func (h *SubmissionHandler) RegisterStudent(router fiber.Router) {
	router.Post("/deployments/:id/submissions", h.submit)
	router.Get("/deployments/:id/submissions/me", h.myResult)
	router.Get("/submissions/:id", h.result)
}

// RegisterAdmin attaches the admin-facing listing endpoint.
func (h *SubmissionHandler) RegisterAdmin(router fiber.Router, guard fiber.Handler) {
	router.Get("/deployments/:id/submissions", guard, h.listByDeployment)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	deploymentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(c.Context(), deploymentID, studentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission graded", submission)
}

func (h *SubmissionHandler) myResult(c *fiber.Ctx) error {
	deploymentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	result, err := h.service.ResultForStudent(c.Context(), deploymentID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission result retrieved", result)
}

func (h *SubmissionHandler) result(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Result(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission result retrieved", result)
}

func (h *SubmissionHandler) listByDeployment(c *fiber.Ctx) error {
	deploymentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListByDeployment(c.Context(), deploymentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDeploymentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "deployment not found")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "submission already exists for this deployment")
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

func (h *SubmissionHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
