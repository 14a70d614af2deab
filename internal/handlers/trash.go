package handlers

import (
	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/areiqi/sitedb/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// RestoreInput names the trash entries to restore; ids may be one value or an array
type RestoreInput struct {
	IDs types.Batch[types.ID] `json:"ids"`
}

// Restore handles POST /api/trash/:id/restore
// @Summary Restore a trash entry
// @Description Moves the entry back to its original collection under a new id
// @Tags Trash
// @Produce json
// @Param id path int true "Trash entry id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /trash/{id}/restore [post]
func (h *CollectionHandler) Restore(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return writeError(c, err, "restore")
	}
	rec, err := h.Store.Restore(c.UserContext(), middleware.Identity(c), id)
	if err != nil {
		return writeError(c, err, "restore")
	}
	return c.JSON(rec)
}

// RestoreMany handles POST /api/trash/restore
// @Summary Restore several trash entries
// @Description Restores each id in order; the first failure stops and earlier restores stay
// @Tags Trash
// @Accept json
// @Produce json
// @Param input body RestoreInput true "Trash entry ids"
// @Success 200 {array} map[string]interface{}
// @Security CookieAuth
// @Router /trash/restore [post]
func (h *CollectionHandler) RestoreMany(c *fiber.Ctx) error {
	var input RestoreInput
	if err := c.BodyParser(&input); err != nil || len(input.IDs.Items) == 0 {
		return writeError(c, &types.CustomError{Code: fiber.StatusBadRequest, Message: "ids are required", Type: "restore"}, "restore")
	}

	restored := make([]models.Record, 0, len(input.IDs.Items))
	for _, id := range input.IDs.Items {
		rec, err := h.Store.Restore(c.UserContext(), middleware.Identity(c), id.Uint64())
		if err != nil {
			return writeError(c, err, "restore")
		}
		restored = append(restored, rec)
	}
	return c.JSON(restored)
}

// Purge handles DELETE /api/trash/:id
// @Summary Permanently delete a trash entry
// @Tags Trash
// @Param id path int true "Trash entry id"
// @Success 204
// @Security CookieAuth
// @Router /trash/{id} [delete]
func (h *CollectionHandler) Purge(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return writeError(c, err, "purge")
	}
	if err := h.Store.PurgeTrash(c.UserContext(), middleware.Identity(c), id); err != nil {
		return writeError(c, err, "purge")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Empty handles DELETE /api/trash
// @Summary Empty the trash
// @Tags Trash
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Security CookieAuth
// @Router /trash [delete]
func (h *CollectionHandler) Empty(c *fiber.Ctx) error {
	n, err := h.Store.EmptyTrash(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return writeError(c, err, "purge")
	}
	return utils.MutationSuccessResponse(c, n)
}
