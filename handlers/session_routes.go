package handlers

import (
	"errors"

	"draft-session-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps the domain failure taxonomy to HTTP statuses. Anything
// outside the taxonomy is an internal fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrNoMatch),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnsupported):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrNotYourTurn),
		errors.Is(err, services.ErrAlreadyComplete),
		errors.Is(err, services.ErrCapacityExceeded):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func reply(c *fiber.Ctx, msg string, err error) error {
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": msg})
}

type sessionBody struct {
	Name     string `json:"name"`
	Property string `json:"property"`
	Value    string `json:"value"`
	Choice   string `json:"choice"`
	Points   string `json:"points"`
}

func parseBody(c *fiber.Ctx) sessionBody {
	var body sessionBody
	// An empty or missing body is fine; every field is optional per route.
	_ = c.BodyParser(&body)
	return body
}

// SetupSessionRoutes wires the command surface: lobby management, draft
// commands and match finishing.
func SetupSessionRoutes(app *fiber.App, sessions *services.SessionService, drafts *services.DraftService, matches *services.MatchService) {
	app.Post("/sessions", func(c *fiber.Ctx) error {
		body := parseBody(c)
		if body.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}
		msg, err := sessions.Lobby(body.Name, c.Locals("user_id").(string), c.Locals("user_name").(string))
		return reply(c, msg, err)
	})

	app.Get("/sessions/lobbies", func(c *fiber.Ctx) error {
		msg, err := sessions.Lobbies()
		return reply(c, msg, err)
	})

	app.Get("/sessions/recent", func(c *fiber.Ctx) error {
		msg, err := sessions.RecentGames(c.QueryInt("limit", 5))
		return reply(c, msg, err)
	})

	app.Get("/sessions/:id", func(c *fiber.Ctx) error {
		msg, err := sessions.Get(c.Params("id"))
		return reply(c, msg, err)
	})

	app.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		msg, err := sessions.Cancel(c.Params("id"))
		return reply(c, msg, err)
	})

	app.Post("/sessions/:id/join", func(c *fiber.Ctx) error {
		msg, err := sessions.Join(c.Params("id"), c.Locals("user_id").(string), c.Locals("user_name").(string))
		return reply(c, msg, err)
	})

	app.Post("/sessions/:id/leave", func(c *fiber.Ctx) error {
		msg, err := sessions.Leave(c.Params("id"), c.Locals("user_id").(string))
		return reply(c, msg, err)
	})

	app.Get("/sessions/:id/config", func(c *fiber.Ctx) error {
		msg, err := sessions.Config(c.Params("id"), "", "")
		return reply(c, msg, err)
	})

	app.Put("/sessions/:id/config", func(c *fiber.Ctx) error {
		body := parseBody(c)
		msg, err := sessions.Config(c.Params("id"), body.Property, body.Value)
		return reply(c, msg, err)
	})

	app.Post("/sessions/:id/start", func(c *fiber.Ctx) error {
		msg, err := drafts.Start(c.Params("id"))
		return reply(c, msg, err)
	})

	app.Post("/sessions/:id/draft", func(c *fiber.Ctx) error {
		body := parseBody(c)
		msg, err := drafts.Draft(c.Params("id"), c.Locals("user_id").(string), body.Choice)
		return reply(c, msg, err)
	})

	app.Post("/sessions/:id/ban", func(c *fiber.Ctx) error {
		body := parseBody(c)
		msg, err := drafts.Ban(c.Params("id"), c.Locals("user_id").(string), body.Choice)
		return reply(c, msg, err)
	})

	app.Post("/sessions/:id/finish", func(c *fiber.Ctx) error {
		body := parseBody(c)
		isAdmin, _ := c.Locals("is_admin").(bool)
		msg, err := matches.Finish(isAdmin, c.Params("id"), body.Points)
		return reply(c, msg, err)
	})
}
