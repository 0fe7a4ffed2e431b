// handlers/trade_routes.go
package handlers

import (
	"game-economy-service/middleware"
	"game-economy-service/models"
	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupTradeRoutes(app *fiber.App, trades *services.TradeService) {
	secured := app.Group("/s", middleware.CompetitorContextMiddleware())

	secured.Get("/trades", func(c *fiber.Ctx) error {
		status := models.TradeStatus(c.Query("status"))
		offers, err := trades.ListForCompetitor(competitorID(c), status)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, offers)
	})

	secured.Get("/trades/:id", func(c *fiber.Ctx) error {
		offer, err := trades.Get(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, offer)
	})

	secured.Post("/trades", func(c *fiber.Ctx) error {
		type Req struct {
			ToCompetitorID string                    `json:"to_competitor_id" validate:"required,uuid"`
			FromCurrency   int64                     `json:"from_currency"`
			ToCurrency     int64                     `json:"to_currency"`
			Items          []services.TradeItemInput `json:"items"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON")
		}
		if _, err := uuid.Parse(req.ToCompetitorID); err != nil {
			return badRequest(c, "invalid to_competitor_id")
		}

		offer, err := trades.CreateOffer(competitorID(c), req.ToCompetitorID,
			req.FromCurrency, req.ToCurrency, req.Items)
		if err != nil {
			return fail(c, err)
		}
		return created(c, offer)
	})

	secured.Post("/trades/:id/respond", func(c *fiber.Ctx) error {
		type Req struct {
			Accept bool `json:"accept"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON")
		}

		offer, err := trades.Respond(c.Params("id"), competitorID(c), req.Accept)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, offer)
	})

	secured.Post("/trades/:id/cancel", func(c *fiber.Ctx) error {
		offer, err := trades.Cancel(c.Params("id"), competitorID(c))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, offer)
	})
}
