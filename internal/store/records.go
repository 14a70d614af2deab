// records.go
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
	"errors"
	"fmt"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/models"
	"gorm.io/gorm"
)

// Add validates fields as a new record of c and stores it
func (s *Store) Add(ctx context.Context, actor *models.Identity, c models.Collection, fields map[string]any) (models.Record, error) {
	k, err := writable(c)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c, auth.ActionAdd); err != nil {
		return nil, err
	}
	rec, err := s.add(ctx, k, fields, func(rec models.Record) error {
		return guardAccount(actor, nil, rec)
	})
	if err != nil {
		return nil, err
	}
	s.Record(ctx, actor, models.ActionAdd, c.String())
	s.notify(ctx, c)
	return rec, nil
}

// add stores a record without authorization, logging or notification.
// check, when set, vets the decoded record before it is written.
func (s *Store) add(ctx context.Context, k kind, fields map[string]any, check func(models.Record) error) (models.Record, error) {
	rec := k.newRecord()
	if err := models.Decode(rec, fields); err != nil {
		return nil, err
	}
	if err := s.prepare(rec); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(rec); err != nil {
			return nil, err
		}
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}
	rec.Meta().CreatedAt = s.stamp()
	if err := db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) prepare(rec models.Record) error {
	if d, ok := rec.(models.Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if p, ok := rec.(models.Preparer); ok {
		if err := p.Prepare(s.hash); err != nil {
			return err
		}
	}
	return nil
}

// Update merges fields over the record id of c
func (s *Store) Update(ctx context.Context, actor *models.Identity, c models.Collection, id uint64, fields map[string]any) (models.Record, error) {
	k, err := writable(c)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c, auth.ActionEdit); err != nil {
		return nil, err
	}
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	var updated models.Record
	err = db.Transaction(func(tx *gorm.DB) error {
		current, err := find(tx, k, c, id)
		if err != nil {
			return err
		}
		next := k.newRecord()
		if err := models.Merge(next, current, fields); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := guardAccount(actor, current, next); err != nil {
			return err
		}
		if p, ok := next.(models.Preparer); ok {
			if err := p.Prepare(s.hash); err != nil {
				return err
			}
		}
		next.Meta().UpdatedAt = s.stamp()
		updated = next
		return tx.Save(next).Error
	})
	if err != nil {
		return nil, err
	}

	s.Record(ctx, actor, models.ActionUpdate, c.String())
	s.notify(ctx, c)
	return updated, nil
}

// Delete removes the record id from c. A soft delete moves it to trash;
// trash and activity log entries are always removed outright. Deleting an
// id that does not exist succeeds without any effect.
func (s *Store) Delete(ctx context.Context, actor *models.Identity, c models.Collection, id uint64, soft bool) error {
	k, err := lookup(c)
	if err != nil {
		return err
	}
	switch c {
	case models.ActivityLogs:
		if models.ActorOrGuest(actor).Role != models.RoleSuperAdmin {
			return fmt.Errorf("%w: only the super admin removes activity entries", ErrForbidden)
		}
	default:
		if err := authorize(actor, c, auth.ActionDelete); err != nil {
			return err
		}
	}

	if soft && models.Restorable(c) {
		return s.moveToTrash(ctx, actor, k, c, id)
	}

	db, err := s.DB(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(k.newRecord(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	s.Record(ctx, actor, models.ActionPurge, c.String())
	s.notify(ctx, c)
	return nil
}

func (s *Store) moveToTrash(ctx context.Context, actor *models.Identity, k kind, c models.Collection, id uint64) error {
	db, err := s.DB(ctx)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		rec, err := find(tx, k, c, id)
		if err != nil {
			return err
		}
		entry, err := s.trashEntry(c, rec)
		if err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Delete(rec).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.Record(ctx, actor, models.ActionDelete, c.String())
	s.notify(ctx, c, models.Trash)
	return nil
}

func (s *Store) trashEntry(c models.Collection, rec models.Record) (*models.TrashEntry, error) {
	fields, err := models.ToFields(rec)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	entry := &models.TrashEntry{
		Base:          models.Base{CreatedAt: rec.Meta().CreatedAt},
		OriginalStore: c,
		OriginalID:    rec.Meta().ID,
		DeletedAt:     s.now().UTC(),
	}
	if entry.Payload.JSON, err = json.Marshal(fields); err != nil {
		return nil, err
	}
	if sec, ok := rec.(models.Secretive); ok {
		entry.SealedSecret = sec.Secret()
	}
	return entry, nil
}

func find(tx *gorm.DB, k kind, c models.Collection, id uint64) (models.Record, error) {
	rec := k.newRecord()
	if err := tx.First(rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%d", ErrNotFound, c, id)
		}
		return nil, err
	}
	return rec, nil
}

// guardAccount keeps the SUPER_ADMIN role and role changes to the super admin.
// before is nil for new records.
func guardAccount(actor *models.Identity, before, after models.Record) error {
	if models.ActorOrGuest(actor).Role == models.RoleSuperAdmin {
		return nil
	}
	next, ok := after.(*models.User)
	if !ok {
		return nil
	}
	if next.Role == models.RoleSuperAdmin {
		return fmt.Errorf("%w: only the super admin manages SUPER_ADMIN accounts", ErrForbidden)
	}
	if prev, ok := before.(*models.User); ok && prev.Role != next.Role {
		return fmt.Errorf("%w: only the super admin changes roles", ErrForbidden)
	}
	return nil
}

// writable returns the kind of c when callers may add and update its records
func writable(c models.Collection) (kind, error) {
	switch c {
	case models.ActivityLogs, models.Trash, models.SettingsKind:
		return kind{}, fmt.Errorf("%w: %s", ErrReadOnly, c)
	}
	return lookup(c)
}
