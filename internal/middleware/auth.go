package middleware

import (
	"errors"
	"strings"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Locals keys set by Session
const (
	LocalUser  = "user"
	LocalToken = "token"
)

// Session resolves the session cookie, or an Authorization bearer token, to
// the signed-in identity. Requests without a valid session continue as guests.
func Session(svc *auth.Service, cookie string, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := Token(c, cookie)
		if token == "" {
			return c.Next()
		}

		id, err := svc.CurrentUser(c.UserContext(), token)
		switch {
		case err == nil:
			c.Locals(LocalUser, id)
			c.Locals(LocalToken, token)
		case !errors.Is(err, auth.ErrNoSession):
			log.Warn().Err(err).Msg("session lookup failed")
		}
		return c.Next()
	}
}

// RequireUser rejects requests without a signed-in identity
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Identity(c) == nil {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: "Sign in required",
				Type:    "auth.session",
			}
		}
		return c.Next()
	}
}

// Token returns the session token sent with the request
func Token(c *fiber.Ctx, cookie string) string {
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Cookies(cookie)
}

// Identity returns the identity stored by Session, nil for guests
func Identity(c *fiber.Ctx) *models.Identity {
	id, _ := c.Locals(LocalUser).(*models.Identity)
	return id
}
