package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/llm-duel/backend/internal/persona"
	"github.com/llm-duel/backend/internal/prompts"
)

func Personas(c *fiber.Ctx) error {
	items := make([]fiber.Map, 0, len(persona.All))
	for _, p := range persona.All {
		items = append(items, fiber.Map{
			"code":        p.String(),
			"name":        p.DisplayName(),
			"shortName":   p.ShortName(),
			"instruction": persona.Instruction(p),
		})
	}
	return c.JSON(fiber.Map{
		"personas": items,
	})
}

func QuickPrompts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"prompts": prompts.Quick(),
	})
}
