// Package store is the site's record store: collection CRUD with soft delete,
// an activity trail and change notifications.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/events"
	"github.com/areiqi/sitedb/internal/media"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/hints"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrReadOnly          = errors.New("collection is read-only")
	ErrForbidden         = errors.New("permission denied")
)

// Store owns the database handle and the subscription registry
type Store struct {
	opener     *database.Opener
	bus        *events.Bus
	log        zerolog.Logger
	now        func() time.Time
	hash       func(string) (string, error)
	compressor media.Compressor
	publisher  media.Publisher

	feedsMu sync.Mutex
	feeds   map[models.Collection]*sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPublisher sets where uploaded media is stored
func WithPublisher(p media.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithCompressor sets how uploaded media is reduced before publishing
func WithCompressor(c media.Compressor) Option {
	return func(s *Store) { s.compressor = c }
}

// WithPasswordHasher replaces bcrypt, mainly to speed up tests
func WithPasswordHasher(hash func(string) (string, error)) Option {
	return func(s *Store) { s.hash = hash }
}

// New creates a Store. The database is opened on first use.
func New(opener *database.Opener, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		opener:     opener,
		bus:        events.NewBus(log),
		log:        log,
		now:        time.Now,
		hash:       auth.HashPassword,
		compressor: media.Passthrough{},
		publisher:  media.DataURIPublisher{},
		feeds:      make(map[models.Collection]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the store's subscription registry
func (s *Store) Bus() *events.Bus {
	return s.bus
}

// DB opens the database and returns the shared handle
func (s *Store) DB(ctx context.Context) (*gorm.DB, error) {
	db, err := s.opener.Open()
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

func (s *Store) stamp() *time.Time {
	t := s.now().UTC()
	return &t
}

// kind binds a collection to its record type
type kind struct {
	newRecord func() models.Record
	findAll   func(db *gorm.DB) ([]models.Record, error)
}

func newKind[T any, P interface {
	*T
	models.Record
}]() kind {
	return kind{
		newRecord: func() models.Record { return P(new(T)) },
		findAll: func(db *gorm.DB) ([]models.Record, error) {
			var rows []T
			if err := db.Order("id desc").Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]models.Record, len(rows))
			for i := range rows {
				out[i] = P(&rows[i])
			}
			return out, nil
		},
	}
}

var kinds = map[models.Collection]kind{
	models.Projects:     newKind[models.Project](),
	models.Gallery:      newKind[models.GalleryItem](),
	models.Messages:     newKind[models.Message](),
	models.Partners:     newKind[models.Partner](),
	models.Users:        newKind[models.User](),
	models.ActivityLogs: newKind[models.ActivityLogEntry](),
	models.Trash:        newKind[models.TrashEntry](),
}

func lookup(name models.Collection) (kind, error) {
	k, ok := kinds[name]
	if !ok {
		return kind{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return k, nil
}

// List returns every record of c, newest first. Records without a creation
// time sort last.
func (s *Store) List(ctx context.Context, c models.Collection) ([]models.Record, error) {
	k, err := lookup(c)
	if err != nil {
		return nil, err
	}
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(db, c, k)
}

func (s *Store) list(db *gorm.DB, c models.Collection, k kind) ([]models.Record, error) {
	recs, err := k.findAll(db.Clauses(hints.Comment("select", "list:"+c.String())))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recs, func(a, b models.Record) int {
		return b.Meta().Created().Compare(a.Meta().Created())
	})
	return recs, nil
}

// Users returns every account with its password hash, for credential checks
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func authorize(actor *models.Identity, c models.Collection, action string) error {
	if !auth.HasPermission(models.ActorOrGuest(actor), c.String(), action) {
		return fmt.Errorf("%w: %s on %s", ErrForbidden, action, c)
	}
	return nil
}
