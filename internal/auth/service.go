// service.go
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

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/areiqi/sitedb/internal/events"
	"github.com/areiqi/sitedb/internal/localstore"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is the only login failure callers see
	ErrInvalidCredentials = errors.New("بيانات الدخول خاطئة")
	// ErrNoSession is returned when a token has no stored identity
	ErrNoSession = errors.New("no session")
)

// The built-in super administrator, checked before the users collection
const (
	SuperAdminUsername = "admin"
	SuperAdminPassword = "sami2025"
	SuperAdminName     = "Sami Al-Areiqi"
)

// SessionKeyPrefix namespaces session identities in local storage
const SessionKeyPrefix = "areiqi_session_v10/"

// UserFinder returns the stored user accounts, password hashes included
type UserFinder interface {
	Users(ctx context.Context) ([]models.User, error)
}

// ActivityRecorder appends an audit entry; failures are its own concern
type ActivityRecorder interface {
	Record(ctx context.Context, actor *models.Identity, action, details string)
}

// Session is an issued token and the identity it carries
type Session struct {
	Token     string           `json:"token"`
	User      *models.Identity `json:"user"`
	CreatedAt time.Time        `json:"createdAt"`
}

// AuthChange is published on the auth channel. User is nil after logout.
type AuthChange struct {
	Token string           `json:"token"`
	User  *models.Identity `json:"user"`
}

// Service logs users in and out
type Service struct {
	local    *localstore.Store
	users    UserFinder
	bus      *events.Bus
	recorder ActivityRecorder
	now      func() time.Time
}

// NewService creates a Service. recorder may be nil.
func NewService(local *localstore.Store, users UserFinder, bus *events.Bus, recorder ActivityRecorder) *Service {
	return &Service{
		local:    local,
		users:    users,
		bus:      bus,
		recorder: recorder,
		now:      time.Now,
	}
}

// SuperAdmin is the identity of the built-in administrator
func SuperAdmin() *models.Identity {
	return &models.Identity{
		Name:        SuperAdminName,
		Username:    SuperAdminUsername,
		Role:        models.RoleSuperAdmin,
		Status:      models.UserActive,
		Permissions: models.Permissions{ActionAll: {}},
	}
}

// Login checks the credentials and persists a new session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	id, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Token:     uuid.NewString(),
		User:      id,
		CreatedAt: s.now().UTC(),
	}
	if err := s.local.SetJSON(ctx, SessionKeyPrefix+sess.Token, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.record(ctx, id, models.ActionLogin)
	s.bus.Publish(models.AuthChannel, AuthChange{Token: sess.Token, User: id})
	return sess, nil
}

func (s *Service) authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	username = NormalizeUsername(username)
	if equal(username, SuperAdminUsername) && equal(password, SuperAdminPassword) {
		return SuperAdmin(), nil
	}

	users, err := s.users.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		u := &users[i]
		if NormalizeUsername(u.Username) != username || u.Status != models.UserActive {
			continue
		}
		if VerifyPassword(u.PasswordHash, password) {
			return u.Identity(), nil
		}
	}
	return nil, ErrInvalidCredentials
}

// Logout removes the session. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	sess, err := s.session(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.local.Remove(ctx, SessionKeyPrefix+token); err != nil {
		return err
	}

	s.record(ctx, sess.User, models.ActionLogout)
	s.bus.Publish(models.AuthChannel, AuthChange{Token: token})
	return nil
}

// CurrentUser returns the identity stored for token
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.Identity, error) {
	sess, err := s.session(ctx, token)
	if err != nil {
		return nil, err
	}
	return sess.User, nil
}

// OnAuthChange calls fn with the token's current identity (nil when logged out),
// then again whenever that session changes.
func (s *Service) OnAuthChange(ctx context.Context, token string, fn func(*models.Identity)) (func(), error) {
	current, err := s.CurrentUser(ctx, token)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return nil, err
	}
	fn(current)

	return s.bus.Subscribe(models.AuthChannel, func(data any) {
		if change, ok := data.(AuthChange); ok && change.Token == token {
			fn(change.User)
		}
	}), nil
}

func (s *Service) session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	var sess Session
	ok, err := s.local.GetJSON(ctx, SessionKeyPrefix+token, &sess)
	if err != nil {
		return nil, err
	}
	if !ok || sess.User == nil {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *Service) record(ctx context.Context, id *models.Identity, action string) {
	if s.recorder != nil {
		s.recorder.Record(ctx, id, action, models.AuthChannel)
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
