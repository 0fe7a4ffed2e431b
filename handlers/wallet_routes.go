// handlers/wallet_routes.go
package handlers

import (
	"strconv"

	"game-economy-service/middleware"
	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupWalletRoutes(app *fiber.App, ledger *services.LedgerService) {
	secured := app.Group("/s", middleware.CompetitorContextMiddleware())

	secured.Get("/wallet", func(c *fiber.Ctx) error {
		bal, err := ledger.GetBalance(competitorID(c))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, bal)
	})

	secured.Get("/wallet/transactions", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		txns, err := ledger.ListTransactions(competitorID(c), limit)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, txns)
	})

	secured.Post("/wallet/transfer", func(c *fiber.Ctx) error {
		type Req struct {
			ToCompetitorID string `json:"to_competitor_id" validate:"required,uuid"`
			Amount         int64  `json:"amount" validate:"required,min=1"`
			Reason         string `json:"reason" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON")
		}
		if _, err := uuid.Parse(req.ToCompetitorID); err != nil {
			return badRequest(c, "invalid to_competitor_id")
		}

		txn, err := ledger.Transfer(competitorID(c), req.ToCompetitorID, req.Amount, req.Reason)
		if err != nil {
			return fail(c, err)
		}
		return created(c, txn)
	})

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.CompetitorContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/wallet/mint", func(c *fiber.Ctx) error {
		type Req struct {
			CompetitorID string `json:"competitor_id" validate:"required,uuid"`
			Amount       int64  `json:"amount" validate:"required,min=1"`
			Reason       string `json:"reason" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON")
		}

		txn, err := ledger.Mint(req.CompetitorID, req.Amount, req.Reason)
		if err != nil {
			return fail(c, err)
		}
		return created(c, txn)
	})
}
