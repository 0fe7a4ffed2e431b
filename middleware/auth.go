// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CompetitorContextMiddleware extracts identity headers set by the Gateway:
// X-User-ID (profile service UUID), X-Competitor-ID (the user's participation
// record in the current game, resolved by the gateway) and X-User-Roles.
// Secured routes under /s/ require the competitor context.
func CompetitorContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		competitorID := c.Get("X-Competitor-ID")
		rolesStr := c.Get("X-User-Roles")

		path := c.Path()
		isSecured := strings.HasPrefix(path, "/s/")
		if isSecured && competitorID == "" {
			log.Printf("❌ [USER_CTX] X-Competitor-ID required but missing on secured route: %s", path)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Competitor-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		c.Locals("user_id", userID)
		c.Locals("competitor_id", competitorID)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}

// RequireRole guards admin routes using the roles the gateway resolved
// upstream.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		log.Printf("🚫 [USER_CTX] role %q required for %s", role, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient role",
		})
	}
}

// SSEContextMiddleware pulls the competitor id from query params for the
// event stream — EventSource cannot set headers, so the gateway rewrites the
// auth context onto the query string for this one route.
func SSEContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		competitorID := strings.TrimSpace(c.Query("competitor_id"))
		if competitorID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing competitor_id in query",
			})
		}
		c.Locals("competitor_id", competitorID)
		return c.Next()
	}
}
