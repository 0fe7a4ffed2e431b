package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestCompetitorContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(CompetitorContextMiddleware())
	app.Get("/s/whoami", func(c *fiber.Ctx) error {
		id, _ := c.Locals("competitor_id").(string)
		return c.SendString(id)
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Secured path without identity headers is rejected.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/s/whoami", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	// Unsecured path passes through.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	// With the gateway headers the competitor id lands in locals.
	req := httptest.NewRequest(http.MethodGet, "/s/whoami", nil)
	req.Header.Set("X-Competitor-ID", "comp-123")
	req.Header.Set("X-User-ID", "user-456")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Use(CompetitorContextMiddleware())
	app.Get("/s/admin/thing", RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendString("secret")
	})

	req := httptest.NewRequest(http.MethodGet, "/s/admin/thing", nil)
	req.Header.Set("X-Competitor-ID", "comp-123")
	req.Header.Set("X-User-Roles", "player")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/s/admin/thing", nil)
	req.Header.Set("X-Competitor-ID", "comp-123")
	req.Header.Set("X-User-Roles", "player, admin")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
