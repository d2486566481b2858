package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/middleware/validation"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/persona"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/logger"
)

type SessionHandler struct {
	store *session.Store
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{
		store: store,
	}
}

func (h *SessionHandler) session(c *fiber.Ctx) (*session.Session, error) {
	return h.store.Get(c.Params("id"))
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	sess := h.store.Create()
	return c.Status(fiber.StatusCreated).JSON(sess.Snapshot())
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(sess.Snapshot())
}

func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPrompt expects the validation middleware to have stored the prompt.
func (h *SessionHandler) SetPrompt(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}

	prompt, _ := validation.Prompt(c)
	sess.SetPrompt(prompt)

	return c.JSON(fiber.Map{
		"prompt": prompt,
	})
}

func (h *SessionHandler) UpdateConfig(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}

	slot, err := models.ParseSlot(c.Params("slot"))
	if err != nil {
		return sendError(c, err)
	}

	var req struct {
		Name        string   `json:"name"`
		Persona     string   `json:"persona"`
		Temperature *float64 `json:"temperature"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Temperature == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Temperature is required",
		})
	}

	cfg := models.ModelConfiguration{
		Name:        req.Name,
		Persona:     persona.Parse(req.Persona),
		Temperature: *req.Temperature,
	}
	if err := sess.UpdateConfig(slot, cfg); err != nil {
		return sendError(c, err)
	}

	snap := sess.Snapshot()
	if slot == models.SlotA {
		return c.JSON(snap.ConfigA)
	}
	return c.JSON(snap.ConfigB)
}

func (h *SessionHandler) History(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}

	entries := sess.History()
	items := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		items = append(items, fiber.Map{
			"id":        e.ID,
			"timestamp": e.Timestamp,
			"prompt":    e.Prompt,
			"preview":   e.Preview,
			"label":     e.Label(),
		})
	}

	return c.JSON(fiber.Map{
		"history": items,
	})
}

func (h *SessionHandler) Select(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}

	ts, err := strconv.ParseInt(c.Params("timestamp"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Timestamp must be an integer",
		})
	}

	snap, err := sess.Select(ts)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(snap)
}

func (h *SessionHandler) ClearHistory(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return sendError(c, err)
	}

	n, err := sess.ClearHistory(c.QueryBool("confirm"))
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"cleared": n,
	})
}
