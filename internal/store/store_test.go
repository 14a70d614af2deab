package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/areiqi/sitedb/data"
	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/media"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin  = auth.SuperAdmin()
	editor = &models.Identity{
		Name:        "Editor",
		Username:    "editor",
		Role:        models.RoleEditor,
		Permissions: models.Permissions{"projects": {"view", "add", "edit"}},
	}
	viewer = &models.Identity{Name: "Viewer", Role: models.RoleViewer}
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *gorm.DB, *clock) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{
		WithClock(clk.now),
		WithPasswordHasher(func(p string) (string, error) { return "hashed:" + p, nil }),
	}, opts...)
	opener := database.NewOpenerFunc(func() (*gorm.DB, error) { return db, nil })
	return New(opener, zerolog.Nop(), opts...), db, clk
}

func project(title string) map[string]any {
	return map[string]any{"title": title, "category": "طاقة", "image": "i.png", "description": "d"}
}

func listFields(t *testing.T, s *Store, c models.Collection) []map[string]any {
	recs, err := s.List(context.Background(), c)
	require.NoError(t, err)
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		out[i], err = models.ToFields(r)
		require.NoError(t, err)
	}
	return out
}

func TestProjectTrashRestoreScenario(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	added, err := s.Add(ctx, admin, models.Projects, project("X"))
	require.NoError(t, err)

	projects := listFields(t, s, models.Projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "published", projects[0]["status"])
	assert.NotZero(t, projects[0]["id"])
	assert.NotEmpty(t, projects[0]["createdAt"])

	require.NoError(t, s.Delete(ctx, admin, models.Projects, added.Meta().ID, true))
	assert.Empty(t, listFields(t, s, models.Projects))
	trash := listFields(t, s, models.Trash)
	require.Len(t, trash, 1)
	assert.Equal(t, "projects", trash[0]["originalStore"])
	assert.Equal(t, "X", trash[0]["title"])

	restored, err := s.Restore(ctx, admin, uint64(trash[0]["id"].(float64)))
	require.NoError(t, err)
	assert.Empty(t, listFields(t, s, models.Trash))
	projects = listFields(t, s, models.Projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "X", projects[0]["title"])
	assert.NotEqual(t, added.Meta().ID, restored.Meta().ID)
}

func TestAddedRecordIsListed(t *testing.T) {
	s, _, _ := newTestStore(t)

	rec, err := s.Add(context.Background(), admin, models.Partners, map[string]any{"name": "ACME", "website": "https://acme.example"})
	require.NoError(t, err)

	recs, err := s.List(context.Background(), models.Partners)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0].(*models.Partner)
	want := rec.(*models.Partner)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Website, got.Website)
	assert.True(t, want.CreatedAt.Equal(*got.CreatedAt))
}

func TestListNewestFirst(t *testing.T) {
	s, db, clk := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, admin, models.Gallery, map[string]any{"image": "a"})
	require.NoError(t, err)
	_, err = s.Add(ctx, admin, models.Gallery, map[string]any{"image": "b"})
	require.NoError(t, err)

	// an earlier timestamp sorts after existing records
	clk.t = clk.t.Add(-time.Hour)
	_, err = s.Add(ctx, admin, models.Gallery, map[string]any{"image": "old"})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.GalleryItem{Image: "undated"}).Error)

	var images []string
	for _, f := range listFields(t, s, models.Gallery) {
		images = append(images, f["image"].(string))
	}
	assert.Equal(t, []string{"b", "a", "old", "undated"}, images)
}

func TestAddValidation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, admin, models.Projects, map[string]any{"title": "no category"})
	assert.ErrorIs(t, err, models.ErrInvalidRecord)

	fields := project("X")
	fields["colour"] = "red"
	_, err = s.Add(ctx, admin, models.Projects, fields)
	assert.ErrorIs(t, err, models.ErrInvalidRecord)

	fields = project("X")
	fields["id"] = 99
	rec, err := s.Add(ctx, admin, models.Projects, fields)
	require.NoError(t, err)
	assert.NotEqual(t, uint64(99), rec.Meta().ID)

	_, err = s.Add(ctx, admin, "invoices", project("X"))
	assert.ErrorIs(t, err, ErrUnknownCollection)

	for _, c := range []models.Collection{models.ActivityLogs, models.Trash, models.SettingsKind} {
		_, err = s.Add(ctx, admin, c, map[string]any{})
		assert.ErrorIs(t, err, ErrReadOnly, c)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, admin, models.Projects, project("X"))
	require.NoError(t, err)

	upd, err := s.Update(ctx, editor, models.Projects, rec.Meta().ID, map[string]any{"status": "draft", "createdAt": "1999-01-01T00:00:00Z"})
	require.NoError(t, err)
	p := upd.(*models.Project)
	assert.Equal(t, "X", p.Title)
	assert.Equal(t, "draft", p.Status)
	assert.True(t, rec.Meta().CreatedAt.Equal(*p.CreatedAt))
	require.NotNil(t, p.UpdatedAt)

	_, err = s.Update(ctx, editor, models.Projects, rec.Meta().ID, map[string]any{"status": "deleted"})
	assert.ErrorIs(t, err, models.ErrInvalidRecord)

	_, err = s.Update(ctx, editor, models.Projects, 404, map[string]any{"title": "Y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingIsSilentNoop(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	notified := 0
	unsub, err := s.Subscribe(ctx, models.Projects, func(any) { notified++ })
	require.NoError(t, err)
	defer unsub()

	assert.NoError(t, s.Delete(ctx, admin, models.Projects, 12345, true))
	assert.NoError(t, s.Delete(ctx, admin, models.Projects, 12345, false))
	assert.Equal(t, 1, notified)
	assert.Empty(t, listFields(t, s, models.ActivityLogs))
}

func TestHardDelete(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, admin, models.Projects, project("X"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, admin, models.Projects, rec.Meta().ID, false))

	assert.Empty(t, listFields(t, s, models.Projects))
	assert.Empty(t, listFields(t, s, models.Trash))
	assert.Equal(t, models.ActionPurge, listFields(t, s, models.ActivityLogs)[0]["action"])
}

func TestAuthorization(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, nil, models.Projects, project("X"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.Add(ctx, viewer, models.Projects, project("X"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.Add(ctx, editor, models.Partners, map[string]any{"name": "ACME"})
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err := s.Add(ctx, editor, models.Projects, project("X"))
	require.NoError(t, err)
	assert.ErrorIs(t, s.Delete(ctx, editor, models.Projects, rec.Meta().ID, true), ErrForbidden)
	_, err = s.UpdateSettings(ctx, editor, map[string]any{"theme": "light"})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, s.Delete(ctx, admin, models.Projects, rec.Meta().ID, true))
	trash := listFields(t, s, models.Trash)
	trashID := uint64(trash[0]["id"].(float64))
	assert.ErrorIs(t, s.PurgeTrash(ctx, editor, trashID), ErrForbidden)
	_, err = s.EmptyTrash(ctx, viewer)
	assert.ErrorIs(t, err, ErrForbidden)

	// editor may add projects, so editor may restore them
	_, err = s.Restore(ctx, editor, trashID)
	require.NoError(t, err)

	logs, err := s.List(ctx, models.ActivityLogs)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	logAdmin := &models.Identity{Role: models.RoleAdmin, Permissions: models.Permissions{"all": {}}}
	assert.ErrorIs(t, s.Delete(ctx, logAdmin, models.ActivityLogs, logs[0].Meta().ID, false), ErrForbidden)
	assert.NoError(t, s.Delete(ctx, admin, models.ActivityLogs, logs[0].Meta().ID, true))
}

func TestActivityLog(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, editor, models.Projects, project("X"))
	require.NoError(t, err)
	_, err = s.Update(ctx, editor, models.Projects, rec.Meta().ID, map[string]any{"title": "Y"})
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, nil, map[string]any{"name": "Ali", "phone": "777123456", "message": "مرحبا"})
	require.NoError(t, err)

	logs := listFields(t, s, models.ActivityLogs)
	require.Len(t, logs, 3)
	assert.Equal(t, "Guest", logs[0]["user"])
	assert.Equal(t, "VIEWER", logs[0]["role"])
	assert.Equal(t, "messages", logs[0]["details"])
	assert.Equal(t, models.ActionUpdate, logs[1]["action"])
	assert.Equal(t, "Editor", logs[2]["user"])
	assert.Equal(t, models.ActionAdd, logs[2]["action"])
	assert.Equal(t, "projects", logs[2]["details"])
}

func TestActivityLogFailureDoesNotFailWrite(t *testing.T) {
	s, db, _ := newTestStore(t)
	require.NoError(t, db.Migrator().DropTable(&models.ActivityLogEntry{}))

	_, err := s.Add(context.Background(), admin, models.Projects, project("X"))
	require.NoError(t, err)
	assert.Len(t, listFields(t, s, models.Projects), 1)
}

func TestSubscribe(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	var projects, trash [][]models.Record
	unsubProjects, err := s.Subscribe(ctx, models.Projects, func(snap any) { projects = append(projects, snap.([]models.Record)) })
	require.NoError(t, err)
	_, err = s.Subscribe(ctx, models.Trash, func(snap any) { trash = append(trash, snap.([]models.Record)) })
	require.NoError(t, err)

	require.Len(t, projects, 1)
	assert.Empty(t, projects[0])

	rec, err := s.Add(ctx, admin, models.Projects, project("X"))
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Len(t, projects[1], 1)

	require.NoError(t, s.Delete(ctx, admin, models.Projects, rec.Meta().ID, true))
	require.Len(t, projects, 3)
	assert.Empty(t, projects[2])
	require.Len(t, trash, 2)
	assert.Len(t, trash[1], 1)

	unsubProjects()
	_, err = s.Add(ctx, admin, models.Projects, project("Y"))
	require.NoError(t, err)
	assert.Len(t, projects, 3)

	_, err = s.Subscribe(ctx, "invoices", func(any) {})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestSettings(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	var snaps []models.Settings
	_, err := s.Subscribe(ctx, models.SettingsKind, func(snap any) { snaps = append(snaps, snap.(models.Settings)) })
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.DefaultSettings(), snaps[0])

	st, err := s.UpdateSettings(ctx, admin, map[string]any{"theme": "light", "id": "other"})
	require.NoError(t, err)
	assert.Equal(t, models.SettingsID, st.ID)
	assert.Equal(t, "light", st.Theme)
	assert.Equal(t, models.DefaultSettings().Logo, st.Logo)

	st, err = s.UpdateSettings(ctx, admin, map[string]any{"maintenanceMode": true})
	require.NoError(t, err)
	assert.Equal(t, "light", st.Theme)
	assert.True(t, st.MaintenanceMode)
	require.Len(t, snaps, 3)

	_, err = s.UpdateSettings(ctx, admin, map[string]any{"theme": "blue"})
	assert.ErrorIs(t, err, models.ErrInvalidRecord)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, got.MaintenanceMode)
	assert.Equal(t, models.ActionSettings, listFields(t, s, models.ActivityLogs)[0]["action"])
}

func TestUserPasswordsSurviveTrash(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, admin, models.Users, map[string]any{
		"name": "Sami Admin", "username": "sami", "password": "password", "role": "ADMIN",
	})
	require.NoError(t, err)
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "hashed:password", users[0].PasswordHash)
	assert.Equal(t, models.UserActive, users[0].Status)

	_, err = s.Update(ctx, admin, models.Users, rec.Meta().ID, map[string]any{"name": "Sami"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, admin, models.Users, rec.Meta().ID, true))
	trash := listFields(t, s, models.Trash)
	assert.NotContains(t, trash[0], "password")
	_, err = s.Restore(ctx, admin, uint64(trash[0]["id"].(float64)))
	require.NoError(t, err)

	users, err = s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Sami", users[0].Name)
	assert.Equal(t, "hashed:password", users[0].PasswordHash)
}

func TestEmptyTrash(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B"} {
		rec, err := s.Add(ctx, admin, models.Projects, project(title))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, admin, models.Projects, rec.Meta().ID, true))
	}
	n, err := s.EmptyTrash(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, listFields(t, s, models.Trash))

	_, err = s.Restore(ctx, admin, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorageUnavailable(t *testing.T) {
	opener := database.NewOpenerFunc(func() (*gorm.DB, error) { return nil, errors.New("quota exceeded") })
	s := New(opener, zerolog.Nop())
	ctx := context.Background()

	_, err := s.List(ctx, models.Projects)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	_, err = s.Add(ctx, admin, models.Projects, project("X"))
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	_, err = s.GetSettings(ctx)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	_, err = s.Subscribe(ctx, models.Projects, func(any) {})
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}

type failingPublisher struct{ after int }

func (f *failingPublisher) Publish(ctx context.Context, u media.Upload) (string, error) {
	if f.after == 0 {
		return "", errors.New("bucket full")
	}
	f.after--
	return "https://cdn.example.com/" + u.Name, nil
}

func TestUploadMediaBatchStopsAtFirstFailure(t *testing.T) {
	s, _, _ := newTestStore(t, WithPublisher(&failingPublisher{after: 1}))
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	added, err := s.UploadMediaBatch(context.Background(), admin, models.Gallery, []media.Upload{
		{Name: "a.png", Data: png},
		{Name: "b.png", Data: png},
		{Name: "c.png", Data: png},
	})
	assert.ErrorContains(t, err, "bucket full")
	require.Len(t, added, 1)
	assert.Equal(t, "https://cdn.example.com/a.png", added[0].(*models.GalleryItem).Image)
	assert.Len(t, listFields(t, s, models.Gallery), 1)

	_, err = s.UploadMediaBatch(context.Background(), nil, models.Gallery, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInitializeDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	seed, err := data.Default()
	require.NoError(t, err)
	seed.Records = map[string][]map[string]any{"partners": {{"name": "ACME"}}}

	n, err := s.InitializeDefaults(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.InitializeDefaults(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, n)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, models.Permissions{"projects": {"view", "add", "edit", "delete"}}, users[0].Permissions)
	assert.Empty(t, listFields(t, s, models.ActivityLogs))

	seed.Records = map[string][]map[string]any{"trash": {{}}}
	_, err = s.InitializeDefaults(ctx, seed)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestSectionGrantsOnGalleryAndTrash(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	curator := &models.Identity{
		Name:        "Curator",
		Role:        models.RoleEditor,
		Permissions: models.Permissions{"gallery": {"add", "delete"}, "trash": {"delete"}},
	}

	first, err := s.Add(ctx, curator, models.Gallery, map[string]any{"image": "a.png"})
	require.NoError(t, err)
	second, err := s.Add(ctx, curator, models.Gallery, map[string]any{"image": "b.png"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, curator, models.Gallery, first.Meta().ID, true))
	require.NoError(t, s.Delete(ctx, curator, models.Gallery, second.Meta().ID, true))

	trash := listFields(t, s, models.Trash)
	require.Len(t, trash, 2)
	require.NoError(t, s.PurgeTrash(ctx, curator, uint64(trash[0]["id"].(float64))))

	n, err := s.EmptyTrash(ctx, curator)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, listFields(t, s, models.Gallery))
}

func TestSubscribeSeesWriteDuringFirstRead(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	var once sync.Once
	written := make(chan error, 1)
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:concurrent_add", func(tx *gorm.DB) {
		if tx.Statement.Table != string(models.Projects) {
			return
		}
		once.Do(func() {
			go func() {
				_, err := s.Add(ctx, admin, models.Projects, project("X"))
				written <- err
			}()
			// let the write commit before the first snapshot is delivered
			time.Sleep(100 * time.Millisecond)
		})
	}))

	var views [][]models.Record
	unsub, err := s.Subscribe(ctx, models.Projects, func(snap any) { views = append(views, snap.([]models.Record)) })
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, <-written)
	require.NotEmpty(t, views)
	assert.Len(t, views[len(views)-1], 1)
	assert.Len(t, listFields(t, s, models.Projects), 1)
}

func TestConcurrentWritersLastSnapshotIsComplete(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	var last []models.Record
	unsub, err := s.Subscribe(ctx, models.Partners, func(snap any) { last = snap.([]models.Record) })
	require.NoError(t, err)
	defer unsub()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Add(ctx, admin, models.Partners, map[string]any{"name": "partner " + string(rune('A'+i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, last, writers)
}

func TestOnlySuperAdminManagesRoles(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	manager := &models.Identity{
		Name:        "Manager",
		Role:        models.RoleAdmin,
		Permissions: models.Permissions{"users": {"add", "edit"}},
	}
	account := func(role models.Role) map[string]any {
		return map[string]any{"name": "Ali", "username": "ali", "password": "pw", "role": string(role)}
	}

	_, err := s.Add(ctx, manager, models.Users, account(models.RoleSuperAdmin))
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err := s.Add(ctx, manager, models.Users, account(models.RoleEditor))
	require.NoError(t, err)
	id := rec.Meta().ID

	_, err = s.Update(ctx, manager, models.Users, id, map[string]any{"role": "ADMIN"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.Update(ctx, manager, models.Users, id, map[string]any{"role": "SUPER_ADMIN"})
	assert.ErrorIs(t, err, ErrForbidden)

	upd, err := s.Update(ctx, manager, models.Users, id, map[string]any{"name": "Ali Saleh"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, upd.(*models.User).Role)

	upd, err = s.Update(ctx, admin, models.Users, id, map[string]any{"role": "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, upd.(*models.User).Role)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ali Saleh", users[0].Name)
}
