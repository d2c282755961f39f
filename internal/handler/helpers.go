package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/modu-camp/quizdeck-api/internal/dto"
	"github.com/modu-camp/quizdeck-api/internal/quiz"
	"github.com/modu-camp/quizdeck-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

// sendQuizValidationError maps the quiz package's structured validation
// errors to a 400 with a field-attributed details payload. It reports false
// when err is not a quiz validation failure.
func sendQuizValidationError(c *fiber.Ctx, err error) (bool, error) {
	var batch *quiz.BatchError
	if errors.As(err, &batch) {
		return true, utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid questions", dto.NewQuestionErrorDetails(batch))
	}

	if validation, ok := quiz.AsValidationError(err); ok {
		return true, utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid question", validation.Fields)
	}

	if errors.Is(err, quiz.ErrTooManyQuestions) || errors.Is(err, quiz.ErrPointLimitExceeded) {
		return true, utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return true, utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	}

	return false, nil
}
