// collections.go
//
// A data service for the Al-Areiqi engineering site and its admin console
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of sitedb.
// sitedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// sitedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with sitedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/store"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/gofiber/fiber/v2"
)

// CollectionHandler handles record routes
type CollectionHandler struct {
	Store *store.Store
}

// List handles GET /api/collections/:collection
// @Summary List records
// @Description Returns all records of a collection, newest first. Projects, gallery and partners are public.
// @Tags Collections
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {array} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collections/{collection} [get]
func (h *CollectionHandler) List(c *fiber.Ctx) error {
	coll, err := collectionParam(c)
	if err != nil {
		return writeError(c, err, "list")
	}
	if !publicCollections[coll] && !auth.HasPermission(middleware.Identity(c), coll.String(), auth.ActionView) {
		return writeError(c, store.ErrForbidden, "list")
	}

	snap, err := h.Store.Snapshot(c.UserContext(), coll)
	if err != nil {
		return writeError(c, err, "list")
	}
	return c.JSON(snap)
}

// Create handles POST /api/collections/:collection
// @Summary Add records
// @Description Adds one record, or each record of an array in order. The first failure stops the batch.
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Param records body map[string]interface{} true "Record fields, or an array of them"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /collections/{collection} [post]
func (h *CollectionHandler) Create(c *fiber.Ctx) error {
	coll, err := collectionParam(c)
	if err != nil {
		return writeError(c, err, "add")
	}

	var input types.Batch[map[string]any]
	if err := input.UnmarshalJSON(c.Body()); err != nil {
		return writeError(c, &types.CustomError{Code: fiber.StatusBadRequest, Message: "body must be a record or an array of records", Type: "add"}, "add")
	}

	added := make([]models.Record, 0, len(input.Items))
	for _, fields := range input.Items {
		rec, err := h.Store.Add(c.UserContext(), middleware.Identity(c), coll, fields)
		if err != nil {
			return writeError(c, err, "add")
		}
		added = append(added, rec)
	}

	if input.Single {
		return c.Status(fiber.StatusCreated).JSON(added[0])
	}
	return c.Status(fiber.StatusCreated).JSON(added)
}

// Update handles PATCH /api/collections/:collection/:id
// @Summary Update a record
// @Description Merges the given fields over the stored record
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Param id path int true "Record id"
// @Param fields body map[string]interface{} true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /collections/{collection}/{id} [patch]
func (h *CollectionHandler) Update(c *fiber.Ctx) error {
	coll, err := collectionParam(c)
	if err != nil {
		return writeError(c, err, "update")
	}
	id, err := idParam(c)
	if err != nil {
		return writeError(c, err, "update")
	}
	fields, err := readFields(c)
	if err != nil {
		return writeError(c, err, "update")
	}

	rec, err := h.Store.Update(c.UserContext(), middleware.Identity(c), coll, id, fields)
	if err != nil {
		return writeError(c, err, "update")
	}
	return c.JSON(rec)
}

// Delete handles DELETE /api/collections/:collection/:id
// @Summary Delete a record
// @Description Moves the record to trash, or removes it outright with hard=true
// @Tags Collections
// @Param collection path string true "Collection name"
// @Param id path int true "Record id"
// @Param hard query bool false "Skip the trash"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /collections/{collection}/{id} [delete]
func (h *CollectionHandler) Delete(c *fiber.Ctx) error {
	coll, err := collectionParam(c)
	if err != nil {
		return writeError(c, err, "delete")
	}
	id, err := idParam(c)
	if err != nil {
		return writeError(c, err, "delete")
	}

	if err := h.Store.Delete(c.UserContext(), middleware.Identity(c), coll, id, !c.QueryBool("hard")); err != nil {
		return writeError(c, err, "delete")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
