package store

import (
	"context"

	"github.com/areiqi/sitedb/internal/models"
)

// Record appends an activity entry attributed to actor, or Guest when nil.
// A failed write is logged and never reaches the caller.
func (s *Store) Record(ctx context.Context, actor *models.Identity, action, details string) {
	who := models.ActorOrGuest(actor)

	db, err := s.DB(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("activity log unavailable")
		return
	}
	entry := &models.ActivityLogEntry{
		Base:    models.Base{CreatedAt: s.stamp()},
		User:    who.Name,
		Role:    who.Role,
		Action:  action,
		Details: details,
	}
	if err := db.Create(entry).Error; err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("details", details).Msg("activity log write failed")
		return
	}
	s.notify(ctx, models.ActivityLogs)
}
