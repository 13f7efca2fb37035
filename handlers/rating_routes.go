package handlers

import (
	"draft-session-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRatingRoutes wires the rating leaderboard and per-player stats.
func SetupRatingRoutes(app *fiber.App, ratings *services.RatingService) {
	app.Get("/ratings", func(c *fiber.Ctx) error {
		msg, err := ratings.Ratings()
		return reply(c, msg, err)
	})

	app.Get("/ratings/players", func(c *fiber.Ctx) error {
		players, err := ratings.RankedPlayers()
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(players)
	})

	app.Get("/players/:id/stats", func(c *fiber.Ctx) error {
		profile, err := ratings.Stats(c.Params("id"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(profile)
	})
}
