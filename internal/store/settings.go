package store

import (
	"context"
	"errors"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSettings returns the settings singleton, or the defaults before the first write
func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	return getSettings(db)
}

func getSettings(db *gorm.DB) (models.Settings, error) {
	var st models.Settings
	err := db.Where(&models.Settings{ID: models.SettingsID}).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultSettings(), nil
	}
	return st, err
}

// UpdateSettings merges fields over the current settings and upserts the singleton
func (s *Store) UpdateSettings(ctx context.Context, actor *models.Identity, fields map[string]any) (models.Settings, error) {
	if err := authorize(actor, models.SettingsKind, auth.ActionEdit); err != nil {
		return models.Settings{}, err
	}
	db, err := s.DB(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	var next models.Settings
	err = db.Transaction(func(tx *gorm.DB) error {
		current, err := getSettings(tx)
		if err != nil {
			return err
		}
		if next, err = models.MergeSettings(current, fields); err != nil {
			return err
		}
		next.UpdatedAt = s.stamp()
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&next).Error
	})
	if err != nil {
		return models.Settings{}, err
	}

	s.Record(ctx, actor, models.ActionSettings, models.SettingsKind.String())
	s.notify(ctx, models.SettingsKind)
	return next, nil
}
