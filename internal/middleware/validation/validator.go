package validation

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PromptKey is the fiber Locals key holding the sanitized prompt. It is
// only set when the request body carried a prompt field.
const PromptKey = "sanitized_prompt"

type Config struct {
	MaxPromptLength int
	// RequirePrompt rejects bodies without a prompt field.
	RequirePrompt bool
	Logger        *zap.Logger
}

// Middleware validates JSON request bodies on prompt-carrying routes. An
// empty body is accepted unless RequirePrompt is set; blank prompts pass
// through so the comparison itself can reject them.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxPromptLength <= 0 {
		cfg.MaxPromptLength = 20000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			if cfg.RequirePrompt {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Prompt is required",
				})
			}
			return c.Next()
		}

		if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		var req struct {
			Prompt *string `json:"prompt"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if req.Prompt == nil {
			if cfg.RequirePrompt {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Prompt is required and must be a string",
				})
			}
			return c.Next()
		}

		prompt := sanitizeString(*req.Prompt)
		if n := utf8.RuneCountInString(prompt); n > cfg.MaxPromptLength {
			cfg.Logger.Warn("Prompt too long",
				zap.String("ip", c.IP()),
				zap.Int("length", n),
				zap.Int("max", cfg.MaxPromptLength),
			)
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Prompt exceeds maximum length",
			})
		}

		c.Locals(PromptKey, prompt)
		return c.Next()
	}
}

// Prompt returns the sanitized prompt stored by Middleware.
func Prompt(c *fiber.Ctx) (string, bool) {
	p, ok := c.Locals(PromptKey).(string)
	return p, ok
}

func sanitizeString(input string) string {
	input = strings.ToValidUTF8(input, "")
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
