package handlers

import (
	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// GetSettings handles GET /api/settings
// @Summary Get site settings
// @Tags Settings
// @Produce json
// @Success 200 {object} models.Settings
// @Router /settings [get]
func (h *CollectionHandler) GetSettings(c *fiber.Ctx) error {
	st, err := h.Store.GetSettings(c.UserContext())
	if err != nil {
		return writeError(c, err, "settings")
	}
	return c.JSON(st)
}

// PutSettings handles PUT /api/settings
// @Summary Update site settings
// @Description Merges the given fields over the current settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param fields body map[string]interface{} true "Settings fields"
// @Success 200 {object} models.Settings
// @Security CookieAuth
// @Router /settings [put]
func (h *CollectionHandler) PutSettings(c *fiber.Ctx) error {
	fields, err := readFields(c)
	if err != nil {
		return writeError(c, err, "settings")
	}
	st, err := h.Store.UpdateSettings(c.UserContext(), middleware.Identity(c), fields)
	if err != nil {
		return writeError(c, err, "settings")
	}
	return c.JSON(st)
}
