package handlers

import (
	"errors"

	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/areiqi/sitedb/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// Handlers groups every API handler
type Handlers struct {
	Collections *CollectionHandler
	Auth        *AuthHandler
	Site        *SiteHandler
}

// Register mounts the API routes on api. The session middleware must run before them.
func (h *Handlers) Register(api fiber.Router) {
	signedIn := middleware.RequireUser()

	api.Get("/collections/:collection", h.Collections.List)
	api.Post("/collections/:collection", signedIn, h.Collections.Create)
	api.Patch("/collections/:collection/:id", signedIn, h.Collections.Update)
	api.Delete("/collections/:collection/:id", signedIn, h.Collections.Delete)

	api.Post("/trash/restore", signedIn, h.Collections.RestoreMany)
	api.Post("/trash/:id/restore", signedIn, h.Collections.Restore)
	api.Delete("/trash/:id", signedIn, h.Collections.Purge)
	api.Delete("/trash", signedIn, h.Collections.Empty)

	api.Get("/settings", h.Collections.GetSettings)
	api.Put("/settings", signedIn, h.Collections.PutSettings)

	api.Post("/auth/login", h.Auth.Login)
	api.Post("/auth/logout", h.Auth.Logout)
	api.Get("/auth/me", h.Auth.Me)

	api.Post("/messages", h.Site.SendMessage)
	api.Get("/specializations", h.Site.GetSpecializations)
	api.Post("/media/:collection", signedIn, h.Site.UploadMedia)
	api.Get("/chat", h.Site.ChatHistory)
	api.Post("/chat", h.Site.ChatSend)
}

// ErrorHandler renders errors returned from handlers and middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := errorStatus(err)
	message := err.Error()
	errorType := "unknown"

	var custom *types.CustomError
	var fe *fiber.Error
	switch {
	case errors.As(err, &custom):
		message = custom.Message
		errorType = custom.Type
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	}
	return utils.ErrorResponse(c, message, code, errorType)
}

// NotFound is the fallback for unmatched routes
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
