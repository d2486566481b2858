package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/middleware/validation"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/internal/textstats"
	"github.com/llm-duel/backend/pkg/logger"
)

type CompareHandler struct {
	store *session.Store
}

func NewCompareHandler(store *session.Store) *CompareHandler {
	return &CompareHandler{
		store: store,
	}
}

// HandleCompare runs a comparison for the session. A prompt in the body
// replaces the session prompt first.
func (h *CompareHandler) HandleCompare(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}

	if prompt, ok := validation.Prompt(c); ok {
		sess.SetPrompt(prompt)
	}

	result, err := sess.Run(c.UserContext(), nil)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(comparePayload(result))
}

func comparePayload(result *models.ComparisonResult) fiber.Map {
	payload := fiber.Map{
		"result": result,
		"stats": fiber.Map{
			"A": responseStats(result.ResponseA),
			"B": responseStats(result.ResponseB),
		},
	}
	if result.Analysis != nil {
		payload["chart"] = result.Analysis.ChartData()
	}
	return payload
}

func responseStats(text string) textstats.Stats {
	stats, err := textstats.Compute(text)
	if err != nil {
		logger.Warn("Failed to compute response stats", zap.Error(err))
	}
	return stats
}
