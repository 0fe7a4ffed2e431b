package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, app *fiber.App, path string) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func TestFailMapsDomainErrorsToStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"insufficient funds", services.ErrInsufficientFunds(10, 50), fiber.StatusBadRequest, services.CodeInsufficientFunds},
		{"recipient not found", services.ErrRecipientNotFound("x"), fiber.StatusNotFound, services.CodeRecipientNotFound},
		{"item not found", services.ErrItemNotFound("x"), fiber.StatusNotFound, services.CodeItemNotFound},
		{"already claimed", services.ErrAlreadyClaimed(3), fiber.StatusConflict, services.CodeAlreadyClaimed},
		{"already purchased", services.ErrAlreadyPurchased("s"), fiber.StatusConflict, services.CodeAlreadyPurchased},
		{"invalid trade", services.ErrInvalidTrade("nope"), fiber.StatusBadRequest, services.CodeInvalidTrade},
		{"transient is masked", errors.New("pq: connection reset"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return fail(c, tt.err)
			})

			status, env := doRequest(t, app, "/boom")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if env.Success {
				t.Error("success = true on error response")
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestOkAndCreatedEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return ok(c, fiber.Map{"value": 42})
	})
	app.Get("/created", func(c *fiber.Ctx) error {
		return created(c, fiber.Map{"id": "abc"})
	})

	status, env := doRequest(t, app, "/ok")
	if status != fiber.StatusOK || !env.Success {
		t.Errorf("ok: status = %d success = %v", status, env.Success)
	}
	status, env = doRequest(t, app, "/created")
	if status != fiber.StatusCreated || !env.Success {
		t.Errorf("created: status = %d success = %v", status, env.Success)
	}
}
