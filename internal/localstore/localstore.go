// Package localstore is a durable key/value store for small JSON documents
// such as session identities and chat transcripts.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/areiqi/sitedb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes the local_storage table
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New returns a Store backed by db
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the value under key and whether it exists
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var item models.LocalStorageItem
	err := s.db.WithContext(ctx).Where(&models.LocalStorageItem{Key: key}).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return item.Value, true, nil
}

// Set writes value under key, replacing any previous value
func (s *Store) Set(ctx context.Context, key, value string) error {
	item := models.LocalStorageItem{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&item).Error
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&models.LocalStorageItem{Key: key}).Error
}

// GetJSON decodes the value under key into v
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("local storage %q: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON under key
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(raw))
}
