package handlers

import (
	"log"

	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
)

// All endpoints answer with the same JSON envelope so clients can branch on
// a stable error code instead of parsing messages.
//
//	{ "success": true,  "data": ... }
//	{ "success": false, "error": { "code": "...", "message": "..." } }

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, err error) error {
	if de, isDomain := services.AsDomain(err); isDomain {
		return c.Status(statusFor(de.Code)).JSON(fiber.Map{
			"success": false,
			"error":   fiber.Map{"code": de.Code, "message": de.Message},
		})
	}
	// Transient failure (lock timeout, connection loss, ...): the
	// transaction already rolled back; retry policy belongs to the caller.
	log.Printf("❌ Internal error on %s: %v", c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   fiber.Map{"code": "INTERNAL", "message": "internal error"},
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   fiber.Map{"code": "BAD_REQUEST", "message": msg},
	})
}

func statusFor(code string) int {
	switch code {
	case services.CodeRecipientNotFound, services.CodeItemNotFound:
		return fiber.StatusNotFound
	case services.CodeAlreadyClaimed, services.CodeAlreadyPurchased:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

func competitorID(c *fiber.Ctx) string {
	id, _ := c.Locals("competitor_id").(string)
	return id
}
