// middleware/user_context.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminRole is the gateway role that unlocks admin-only behavior, such as
// re-finishing an already finished session.
const AdminRole = "admin"

// UserContext extracts the player identity and roles forwarded by the
// gateway. Commands act on behalf of a player, so calls without an
// X-User-ID are rejected before reaching any handler.
func UserContext(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		userName := c.Get("X-User-Name")
		rolesStr := c.Get("X-User-Roles")

		if userID == "" {
			log.Warn("request without user context", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through the gateway with auth context",
			})
		}

		isAdmin := false
		for _, r := range strings.Split(rolesStr, ",") {
			if strings.TrimSpace(r) == AdminRole {
				isAdmin = true
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_name", userName)
		c.Locals("is_admin", isAdmin)
		return c.Next()
	}
}
