package store

import (
	"context"
	"sync"

	"github.com/areiqi/sitedb/internal/models"
)

// Snapshot returns the current contents of c: a record list, or the settings singleton
func (s *Store) Snapshot(ctx context.Context, c models.Collection) (any, error) {
	if c == models.SettingsKind {
		return s.GetSettings(ctx)
	}
	return s.List(ctx, c)
}

// Subscribe calls fn with the current snapshot of c, then with a fresh
// snapshot after every committed change to c. The returned func removes
// this subscription only. fn runs while the channel's feed is held, so it
// must not write to c synchronously.
func (s *Store) Subscribe(ctx context.Context, c models.Collection, fn func(snapshot any)) (func(), error) {
	if c != models.SettingsKind {
		if _, err := lookup(c); err != nil {
			return nil, err
		}
	}
	feed := s.feed(c)
	feed.Lock()
	defer feed.Unlock()

	// registered before the read, so a commit after the read is published to fn
	unsubscribe := s.bus.Subscribe(c.String(), fn)
	snap, err := s.Snapshot(ctx, c)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	fn(snap)
	return unsubscribe, nil
}

// notify publishes a fresh snapshot of each collection to its subscribers.
// Snapshot and publish are serialized per channel so the last frame a
// subscriber sees reflects every commit before it.
func (s *Store) notify(ctx context.Context, cs ...models.Collection) {
	for _, c := range cs {
		if s.bus.Count(c.String()) == 0 {
			continue
		}
		s.publish(context.WithoutCancel(ctx), c)
	}
}

func (s *Store) publish(ctx context.Context, c models.Collection) {
	feed := s.feed(c)
	feed.Lock()
	defer feed.Unlock()

	snap, err := s.Snapshot(ctx, c)
	if err != nil {
		s.log.Warn().Err(err).Str("collection", c.String()).Msg("notify snapshot failed")
		return
	}
	s.bus.Publish(c.String(), snap)
}

func (s *Store) feed(c models.Collection) *sync.Mutex {
	s.feedsMu.Lock()
	defer s.feedsMu.Unlock()
	m, ok := s.feeds[c]
	if !ok {
		m = &sync.Mutex{}
		s.feeds[c] = m
	}
	return m
}
