package auth

import (
	"context"
	"testing"

	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/events"
	"github.com/areiqi/sitedb/internal/localstore"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users []models.User
	err   error
}

func (f *fakeUsers) Users(context.Context) ([]models.User, error) {
	return f.users, f.err
}

type fakeRecorder struct {
	actions []string
}

func (f *fakeRecorder) Record(_ context.Context, actor *models.Identity, action, details string) {
	f.actions = append(f.actions, actor.Username+":"+action)
}

func newTestService(t *testing.T, users ...models.User) (*Service, *events.Bus, *fakeRecorder) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	for i := range users {
		require.NoError(t, users[i].Prepare(HashPassword))
	}
	bus := events.NewBus(zerolog.Nop())
	rec := &fakeRecorder{}
	return NewService(localstore.New(db), &fakeUsers{users: users}, bus, rec), bus, rec
}

func TestSuperAdminLoginIgnoresUsers(t *testing.T) {
	svc, _, _ := newTestService(t, models.User{
		Name: "Impostor", Username: "admin", Password: "other", Role: models.RoleViewer, Status: models.UserActive,
	})

	sess, err := svc.Login(context.Background(), "admin", "sami2025")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, sess.User.Role)
	assert.Equal(t, SuperAdminName, sess.User.Name)
	assert.NotEmpty(t, sess.Token)
}

func TestUserLogin(t *testing.T) {
	svc, _, rec := newTestService(t,
		models.User{Name: "Sami Admin", Username: "sami", Password: "password", Role: models.RoleAdmin, Status: models.UserActive},
		models.User{Name: "Gone", Username: "gone", Password: "password", Role: models.RoleEditor, Status: models.UserSuspended},
	)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "sami", "password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.User.Role)
	assert.Equal(t, []string{"sami:" + models.ActionLogin}, rec.actions)

	for _, creds := range [][2]string{{"sami", "wrong"}, {"nobody", "password"}, {"gone", "password"}, {"admin", "password"}} {
		_, err := svc.Login(ctx, creds[0], creds[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, creds[0])
	}
}

func TestLoginStorageFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.users = &fakeUsers{err: database.ErrStorageUnavailable}

	_, err := svc.Login(context.Background(), "sami", "password")
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	_, err := svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	sess, err := svc.Login(ctx, "admin", "sami2025")
	require.NoError(t, err)

	id, err := svc.CurrentUser(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, SuperAdminUsername, id.Username)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.CurrentUser(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, []string{"admin:" + models.ActionLogin, "admin:" + models.ActionLogout}, rec.actions)
}

func TestOnAuthChange(t *testing.T) {
	svc, bus, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "admin", "sami2025")
	require.NoError(t, err)

	var seen []*models.Identity
	unsub, err := svc.OnAuthChange(ctx, sess.Token, func(id *models.Identity) { seen = append(seen, id) })
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, SuperAdminUsername, seen[0].Username)

	// another session does not reach this listener
	_, err = svc.Login(ctx, "admin", "sami2025")
	require.NoError(t, err)
	assert.Len(t, seen, 1)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	require.Len(t, seen, 2)
	assert.Nil(t, seen[1])

	unsub()
	assert.Zero(t, bus.Count(models.AuthChannel))
}

func TestOnAuthChangeAnonymous(t *testing.T) {
	svc, _, _ := newTestService(t)

	var calls int
	last := &models.Identity{}
	unsub, err := svc.OnAuthChange(context.Background(), "missing", func(id *models.Identity) {
		calls++
		last = id
	})
	require.NoError(t, err)
	defer unsub()
	assert.Equal(t, 1, calls)
	assert.Nil(t, last)
}
