// handlers/season_routes.go
package handlers

import (
	"strconv"

	"game-economy-service/middleware"
	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSeasonRoutes(app *fiber.App, seasons *services.SeasonService, milestones *services.MilestoneService) {
	secured := app.Group("/s", middleware.CompetitorContextMiddleware())

	secured.Get("/seasons/:season_id/progress", func(c *fiber.Ctx) error {
		prog, claimed, err := seasons.GetProgression(competitorID(c), c.Params("season_id"))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, fiber.Map{
			"progression":   prog,
			"claimed_tiers": claimed,
		})
	})

	secured.Get("/seasons/:season_id/tiers", func(c *fiber.Ctx) error {
		tiers, err := seasons.ListTiers(c.Params("season_id"))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, tiers)
	})

	secured.Post("/seasons/:season_id/tiers/:tier/claim", func(c *fiber.Ctx) error {
		tierNumber, err := strconv.Atoi(c.Params("tier"))
		if err != nil || tierNumber < 1 {
			return badRequest(c, "invalid tier number")
		}

		tier, err := seasons.ClaimReward(competitorID(c), c.Params("season_id"), tierNumber)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, tier)
	})

	secured.Post("/seasons/:season_id/battle-pass", func(c *fiber.Ctx) error {
		seasonID := c.Params("season_id")
		season, err := seasons.GetSeason(seasonID)
		if err != nil {
			return fail(c, err)
		}

		prog, err := seasons.PurchaseBattlePass(competitorID(c), seasonID, season.BattlePassPrice)
		if err != nil {
			return fail(c, err)
		}
		return created(c, prog)
	})

	secured.Get("/milestones", func(c *fiber.Ctx) error {
		granted, err := milestones.ListForCompetitor(competitorID(c))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, granted)
	})

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.CompetitorContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/seasons/:season_id/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			CompetitorID string `json:"competitor_id" validate:"required,uuid"`
			Amount       int64  `json:"amount" validate:"required,min=1"`
			Source       string `json:"source" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON")
		}

		result, err := seasons.AwardXP(req.CompetitorID, c.Params("season_id"), req.Amount, req.Source)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, result)
	})
}
