package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/history"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/logger"
)

// statusFor maps domain errors to HTTP status codes and client-facing
// messages. Unexpected errors get a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound, "Session not found"
	case errors.Is(err, history.ErrNotFound):
		return fiber.StatusNotFound, "History entry not found"
	case errors.Is(err, session.ErrRunInProgress):
		return fiber.StatusConflict, "A comparison is already running"
	case errors.Is(err, comparison.ErrEmptyPrompt):
		return fiber.StatusBadRequest, "Prompt is required"
	case errors.Is(err, models.ErrInvalidTemperature):
		return fiber.StatusBadRequest, "Temperature must be between 0.0 and 2.0"
	case errors.Is(err, models.ErrUnknownSlot):
		return fiber.StatusBadRequest, "Slot must be A or B"
	case errors.Is(err, session.ErrClearNotConfirmed):
		return fiber.StatusBadRequest, "Clearing history requires confirm=true"
	}
	return fiber.StatusInternalServerError, "Comparison failed, please try again"
}

func sendError(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
