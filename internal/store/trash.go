// trash.go
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

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/models"
	"gorm.io/gorm"
)

// Restore puts the trash entry id back into its original collection under a
// new id and removes it from trash, in one transaction.
func (s *Store) Restore(ctx context.Context, actor *models.Identity, id uint64) (models.Record, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	var restored models.Record
	var origin models.Collection
	err = db.Transaction(func(tx *gorm.DB) error {
		found, err := find(tx, kinds[models.Trash], models.Trash, id)
		if err != nil {
			return err
		}
		entry := found.(*models.TrashEntry)
		origin = entry.OriginalStore
		if err := authorize(actor, origin, auth.ActionAdd); err != nil {
			return err
		}
		rec, err := s.revive(entry)
		if err != nil {
			return err
		}
		if err := guardAccount(actor, nil, rec); err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		restored = rec
		return tx.Delete(entry).Error
	})
	if err != nil {
		return nil, err
	}

	s.Record(ctx, actor, models.ActionRestore, origin.String())
	s.notify(ctx, origin, models.Trash)
	return restored, nil
}

// revive rebuilds the original record from a trash entry with fresh store fields
func (s *Store) revive(entry *models.TrashEntry) (models.Record, error) {
	if !models.Restorable(entry.OriginalStore) {
		return nil, fmt.Errorf("%w: trash/%d came from %q", models.ErrInvalidRecord, entry.ID, entry.OriginalStore)
	}
	k, err := lookup(entry.OriginalStore)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if len(entry.Payload.JSON) > 0 {
		if err := json.Unmarshal(entry.Payload.JSON, &fields); err != nil {
			return nil, fmt.Errorf("%w: trash/%d: %v", models.ErrInvalidRecord, entry.ID, err)
		}
	}
	rec := k.newRecord()
	if err := models.Decode(rec, fields); err != nil {
		return nil, err
	}
	if sec, ok := rec.(models.Secretive); ok {
		sec.SetSecret(entry.SealedSecret)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	rec.Meta().CreatedAt = s.stamp()
	return rec, nil
}

// PurgeTrash permanently removes one trash entry
func (s *Store) PurgeTrash(ctx context.Context, actor *models.Identity, id uint64) error {
	return s.Delete(ctx, actor, models.Trash, id, false)
}

// EmptyTrash permanently removes every trash entry and returns how many were removed
func (s *Store) EmptyTrash(ctx context.Context, actor *models.Identity) (int64, error) {
	if err := authorize(actor, models.Trash, auth.ActionDelete); err != nil {
		return 0, err
	}
	db, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.TrashEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.Record(ctx, actor, models.ActionPurge, models.Trash.String())
		s.notify(ctx, models.Trash)
	}
	return res.RowsAffected, nil
}
