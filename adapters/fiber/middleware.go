package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bodahq/boda/core"
)

// extractToken pulls the bearer token from the Authorization header,
// falling back to the auth cookie.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return c.Cookies("boda_token")
}

// RequireUser validates a rider token and stores the account and
// session in the context for downstream handlers.
func (a *Adapter) RequireUser(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing authorization token",
		})
	}

	data, err := a.db.Auth.ValidateUserSession(token)
	if err != nil {
		return handleError(c, err)
	}

	c.Locals("user", data.User)
	c.Locals("session", data.Session)
	return c.Next()
}

// RequireDriver is the driver-realm counterpart of RequireUser.
func (a *Adapter) RequireDriver(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing authorization token",
		})
	}

	data, err := a.db.Auth.ValidateDriverSession(token)
	if err != nil {
		return handleError(c, err)
	}

	c.Locals("driver", data.Driver)
	c.Locals("session", data.Session)
	return c.Next()
}

// RequireAdmin validates a rider token and additionally demands the
// admin role.
func (a *Adapter) RequireAdmin(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing authorization token",
		})
	}

	data, err := a.db.Auth.ValidateUserSession(token)
	if err != nil {
		return handleError(c, err)
	}
	if data.User.Role != core.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required",
		})
	}

	c.Locals("user", data.User)
	c.Locals("session", data.Session)
	return c.Next()
}
