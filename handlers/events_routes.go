// handlers/events_routes.go
package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"game-economy-service/middleware"
	"game-economy-service/services"

	"github.com/gofiber/fiber/v2"
)

// SetupEventRoutes exposes the real-time event stream. Events are purely
// advisory notifications (trade responded, tier up, reward claimed); nothing
// in the economy core waits on a subscriber.
func SetupEventRoutes(app *fiber.App, broker *services.EventBroker) {
	app.Get("/s/events/stream", middleware.SSEContextMiddleware(), func(c *fiber.Ctx) error {
		id := competitorID(c)

		// SSE headers
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		events, cancel := broker.Subscribe(id)
		done := c.Context().Done()

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()

			keepalive := time.NewTicker(15 * time.Second)
			defer keepalive.Stop()

			// Initial keepalive (comment event)
			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case evt, alive := <-events:
					if !alive {
						return
					}
					payload, _ := json.Marshal(evt)
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
					if err := w.Flush(); err != nil {
						// Client disconnected
						return
					}
				case <-keepalive.C:
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
				case <-done:
					// Client closed connection
					return
				}
			}
		})

		return nil
	})
}
