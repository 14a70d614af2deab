// common.go
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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/chat"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/media"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/store"
	"github.com/areiqi/sitedb/internal/types"
	"github.com/areiqi/sitedb/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// publicCollections may be listed without signing in
var publicCollections = map[models.Collection]bool{
	models.Projects: true,
	models.Gallery:  true,
	models.Partners: true,
}

// errorStatus maps a store or auth error to its HTTP status
func errorStatus(err error) int {
	var custom *types.CustomError
	switch {
	case errors.As(err, &custom):
		return custom.Code
	case errors.Is(err, models.ErrInvalidRecord),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, media.ErrNotImage):
		return fiber.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession):
		return fiber.StatusUnauthorized
	case errors.Is(err, store.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrUnknownCollection):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrReadOnly):
		return fiber.StatusMethodNotAllowed
	case errors.Is(err, database.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// writeError sends err in the standard envelope, typed by the failing operation
func writeError(c *fiber.Ctx, err error, op string) error {
	status := errorStatus(err)
	message := err.Error()
	if errors.Is(err, auth.ErrInvalidCredentials) {
		message = auth.ErrInvalidCredentials.Error()
	}
	return utils.ErrorResponse(c, message, status, op)
}

func collectionParam(c *fiber.Ctx) (models.Collection, error) {
	coll, err := models.ParseCollection(c.Params("collection"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", store.ErrUnknownCollection, err)
	}
	return coll, nil
}

func idParam(c *fiber.Ctx) (uint64, error) {
	id, err := types.ParseID(c.Params("id"))
	if err != nil {
		return 0, &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: err.Error(),
			Type:    "request.id",
		}
	}
	return id.Uint64(), nil
}

// readFields decodes a JSON object body
func readFields(c *fiber.Ctx) (map[string]any, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return nil, fmt.Errorf("%w: body: %v", models.ErrInvalidRecord, err)
	}
	return fields, nil
}
