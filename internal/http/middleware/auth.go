package middleware

import (
	"github.com/gofiber/fiber/v2"

	"cloudsync/internal/model"
	"cloudsync/internal/service"
)

// UserLocalKey is the Fiber locals key holding the authenticated *model.User.
const UserLocalKey = "user"

// RequireAuth resolves the Authorization header through the access gate.
// Failures are returned to the app's ErrorHandler unchanged.
func RequireAuth(gate service.AccessGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := gate.AuthenticateRequest(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		c.Locals(UserLocalKey, u)
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(UserLocalKey).(*model.User)
	return u
}
