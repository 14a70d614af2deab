package handlers

import (
	"time"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles session routes
type AuthHandler struct {
	Auth   *auth.Service
	Cookie string
}

// LoginInput is the login form
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Description Checks the credentials, sets the session cookie and returns the session
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginInput true "Credentials"
// @Success 200 {object} auth.Session
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, auth.ErrInvalidCredentials, "login")
	}

	sess, err := h.Auth.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return writeError(c, err, "login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.Cookie,
		Value:    sess.Token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(sess)
}

// Logout handles POST /api/auth/logout
// @Summary Sign out
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), middleware.Token(c, h.Cookie)); err != nil {
		return writeError(c, err, "logout")
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.Cookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Unix(0, 0),
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me
// @Summary Current identity
// @Tags Auth
// @Produce json
// @Success 200 {object} models.Identity
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id := middleware.Identity(c)
	if id == nil {
		return writeError(c, auth.ErrNoSession, "session")
	}
	return c.JSON(id)
}
