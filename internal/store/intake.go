package store

import (
	"context"
	"fmt"

	"github.com/areiqi/sitedb/data"
	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/media"
	"github.com/areiqi/sitedb/internal/models"
)

// SendMessage stores a contact form submission. Anyone may send one.
func (s *Store) SendMessage(ctx context.Context, actor *models.Identity, fields map[string]any) (models.Record, error) {
	rec, err := s.add(ctx, kinds[models.Messages], fields, nil)
	if err != nil {
		return nil, err
	}
	s.Record(ctx, actor, models.ActionAdd, models.Messages.String())
	s.notify(ctx, models.Messages)
	return rec, nil
}

// InitializeDefaults writes the seed users when no account exists yet, and
// the seed records of each collection that is still empty. It returns the
// number of records written.
func (s *Store) InitializeDefaults(ctx context.Context, seed *data.Seed) (int, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}

	batches := make(map[models.Collection][]map[string]any, len(seed.Records)+1)
	for name, recs := range seed.Records {
		c, err := models.ParseCollection(name)
		if err != nil {
			return 0, fmt.Errorf("seed: %w", err)
		}
		if _, err := writable(c); err != nil {
			return 0, fmt.Errorf("seed: %w", err)
		}
		batches[c] = recs
	}
	if len(seed.Users) > 0 {
		batches[models.Users] = append(batches[models.Users], seed.Users...)
	}

	written := 0
	for _, c := range models.Collections {
		recs := batches[c]
		if len(recs) == 0 {
			continue
		}
		k := kinds[c]
		var count int64
		if err := db.Model(k.newRecord()).Count(&count).Error; err != nil {
			return written, err
		}
		if count > 0 {
			continue
		}
		for _, fields := range recs {
			if _, err := s.add(ctx, k, fields, nil); err != nil {
				return written, fmt.Errorf("seed %s: %w", c, err)
			}
			written++
		}
		s.notify(ctx, c)
	}
	if written > 0 {
		s.log.Info().Int("records", written).Msg("defaults initialized")
	}
	return written, nil
}

// UploadMediaBatch compresses, publishes and adds each upload to c as
// {image: ref}, one at a time. The first failure stops the batch; records
// added before it stay and are returned with the error.
func (s *Store) UploadMediaBatch(ctx context.Context, actor *models.Identity, c models.Collection, uploads []media.Upload) ([]models.Record, error) {
	if _, err := writable(c); err != nil {
		return nil, err
	}
	if err := authorize(actor, c, auth.ActionAdd); err != nil {
		return nil, err
	}

	added := make([]models.Record, 0, len(uploads))
	for i, u := range uploads {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		small, err := s.compressor.Compress(ctx, u)
		if err != nil {
			return added, fmt.Errorf("upload %d (%s): %w", i, u.Name, err)
		}
		ref, err := s.publisher.Publish(ctx, small)
		if err != nil {
			return added, fmt.Errorf("upload %d (%s): %w", i, u.Name, err)
		}
		rec, err := s.Add(ctx, actor, c, map[string]any{"image": ref})
		if err != nil {
			return added, fmt.Errorf("upload %d (%s): %w", i, u.Name, err)
		}
		added = append(added, rec)
	}
	return added, nil
}
