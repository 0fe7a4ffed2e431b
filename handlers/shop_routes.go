// handlers/shop_routes.go
package handlers

import (
	"game-economy-service/middleware"
	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupShopRoutes(app *fiber.App, shop *services.ShopService, inventory *services.InventoryService) {
	secured := app.Group("/s", middleware.CompetitorContextMiddleware())

	secured.Get("/shop/items", func(c *fiber.Ctx) error {
		items, err := shop.ListItems()
		if err != nil {
			return fail(c, err)
		}
		return ok(c, items)
	})

	secured.Post("/shop/items/:item_id/purchase", func(c *fiber.Ctx) error {
		type Req struct {
			Quantity int64 `json:"quantity"`
		}
		req := Req{Quantity: 1}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid JSON")
			}
		}

		result, err := shop.PurchaseItem(competitorID(c), c.Params("item_id"), req.Quantity)
		if err != nil {
			return fail(c, err)
		}
		return created(c, result)
	})

	secured.Get("/inventory", func(c *fiber.Ctx) error {
		entries, err := inventory.List(competitorID(c))
		if err != nil {
			return fail(c, err)
		}
		return ok(c, entries)
	})

	secured.Post("/items/:item_id/use", func(c *fiber.Ctx) error {
		type Req struct {
			Quantity int64 `json:"quantity"`
		}
		req := Req{Quantity: 1}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid JSON")
			}
		}

		entry, err := inventory.UseItem(competitorID(c), c.Params("item_id"), req.Quantity)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, entry)
	})
}
