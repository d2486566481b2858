package handlers

import (
	"context"
	"unicode/utf8"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/logger"
)

// ClientIPKey is the Locals key under which the upgrade middleware stores
// the client IP for per-message rate limiting.
const ClientIPKey = "client_ip"

// Limiter is consulted once per compare message.
type Limiter interface {
	Allow(key string) bool
}

type WebSocketHandler struct {
	store           *session.Store
	limiter         Limiter
	maxPromptLength int
}

// NewWebSocketHandler returns a handler; a nil limiter disables limiting.
func NewWebSocketHandler(store *session.Store, limiter Limiter, maxPromptLength int) *WebSocketHandler {
	return &WebSocketHandler{
		store:           store,
		limiter:         limiter,
		maxPromptLength: maxPromptLength,
	}
}

type eventWriter interface {
	WriteJSON(v interface{}) error
}

type wsRequest struct {
	Type   string  `json:"type"`
	Prompt *string `json:"prompt"`
}

type wsEvent struct {
	Type   string                   `json:"type"`
	Stage  comparison.Stage         `json:"stage,omitempty"`
	Result *models.ComparisonResult `json:"result,omitempty"`
	Chart  []models.ChartPoint      `json:"chart,omitempty"`
	Error  string                   `json:"error,omitempty"`
	Code   int                      `json:"code,omitempty"`
}

// HandleConnection serves /ws/sessions/:id. Each {"type":"compare"}
// message runs one comparison and is answered with status events followed
// by a complete or error event. Responses are not streamed token by token.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := c.Params("id")
	logger.Info("WebSocket connection established", zap.String("session_id", sessionID))

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("session_id", sessionID))
	}()

	clientIP, _ := c.Locals(ClientIPKey).(string)

	sess, err := h.store.Get(sessionID)
	if err != nil {
		h.sendError(c, err)
		return
	}

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read WebSocket message", zap.Error(err))
			}
			return
		}

		if msg.Type != "compare" {
			continue
		}

		if err := h.compare(c, clientIP, sess, msg); err != nil {
			logger.Error("Failed to write WebSocket event", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) compare(c eventWriter, clientIP string, sess *session.Session, msg wsRequest) error {
	if h.limiter != nil && !h.limiter.Allow(clientIP) {
		logger.Warn("Rate limit exceeded", zap.String("ip", clientIP), zap.String("session_id", sess.ID()))
		return c.WriteJSON(wsEvent{Type: "error", Error: "Rate limit exceeded. Please try again later.", Code: 429})
	}

	if msg.Prompt != nil {
		if h.maxPromptLength > 0 && utf8.RuneCountInString(*msg.Prompt) > h.maxPromptLength {
			return c.WriteJSON(wsEvent{Type: "error", Error: "Prompt exceeds maximum length", Code: 413})
		}
		sess.SetPrompt(*msg.Prompt)
	}

	var writeErr error
	progress := func(stage comparison.Stage) {
		if writeErr == nil {
			writeErr = c.WriteJSON(wsEvent{Type: "status", Stage: stage})
		}
	}

	result, err := sess.Run(context.Background(), progress)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return h.sendError(c, err)
	}

	event := wsEvent{Type: "complete", Result: result}
	if result.Analysis != nil {
		event.Chart = result.Analysis.ChartData()
	}
	return c.WriteJSON(event)
}

func (h *WebSocketHandler) sendError(c eventWriter, err error) error {
	status, msg := statusFor(err)
	return c.WriteJSON(wsEvent{Type: "error", Error: msg, Code: status})
}
