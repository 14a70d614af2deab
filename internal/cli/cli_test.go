package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/config"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/areiqi/sitedb/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func testDeps(t *testing.T) *Deps {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	st := store.New(database.NewOpenerFunc(func() (*gorm.DB, error) { return db, nil }), zerolog.Nop(),
		store.WithPasswordHasher(func(p string) (string, error) { return "hashed:" + p, nil }))
	return &Deps{
		Config: &config.Config{DBType: "sqlite-nocgo", DBDatabase: "memory"},
		Store:  st,
		Log:    zerolog.Nop(),
	}
}

func run(t *testing.T, deps *Deps, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(func(*RootOptions) (*Deps, error) { return deps, nil })
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, testDeps(t), "--format", "xml", "trash", "list")
	assert.ErrorContains(t, err, "invalid format")
}

func TestSeed(t *testing.T) {
	deps := testDeps(t)

	out, err := run(t, deps, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "1 record(s) written")

	out, err = run(t, deps, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "0 record(s) written")

	file := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(file, []byte("records:\n  partners:\n    - name: ACME\n"), 0o600))
	out, err = run(t, deps, "--format", "json", "seed", "-f", file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"written":1}`, out)
}

func TestUsersAdd(t *testing.T) {
	deps := testDeps(t)

	out, err := run(t, deps, "users", "add", "--name", "Editor", "--username", "ed", "--password", "pw", "--role", "editor", "--perm", "projects=view,add")
	require.NoError(t, err)
	assert.Contains(t, out, "user ed created")

	users, err := deps.Store.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleEditor, users[0].Role)
	assert.Equal(t, models.Permissions{"projects": {"view", "add"}}, users[0].Permissions)

	_, err = run(t, deps, "users", "add", "--name", "X", "--username", "x", "--password", "pw", "--perm", "broken")
	assert.ErrorContains(t, err, "invalid permission")
	_, err = run(t, deps, "users", "add", "--name", "X", "--username", "x", "--password", "pw", "--role", "owner")
	assert.ErrorIs(t, err, models.ErrInvalidRecord)
}

func TestTrashCommands(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()

	rec, err := deps.Store.Add(ctx, auth.SuperAdmin(), models.Partners, map[string]any{"name": "ACME"})
	require.NoError(t, err)
	require.NoError(t, deps.Store.Delete(ctx, auth.SuperAdmin(), models.Partners, rec.Meta().ID, true))

	out, err := run(t, deps, "trash", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "partners")

	out, err = run(t, deps, "--format", "json", "trash", "list")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ACME", entries[0]["name"])
	id := entries[0]["id"].(float64)

	out, err = run(t, deps, "trash", "restore", formatID(id))
	require.NoError(t, err)
	assert.Contains(t, out, "restored as partners/")

	_, err = run(t, deps, "trash", "restore", formatID(id))
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = run(t, deps, "trash", "purge", "abc")
	assert.ErrorContains(t, err, "invalid id")

	out, err = run(t, deps, "trash", "empty")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 0 entries")
}

func TestExportYAML(t *testing.T) {
	deps := testDeps(t)
	_, err := deps.Store.Add(context.Background(), auth.SuperAdmin(), models.Projects, map[string]any{
		"title": "X", "category": "طاقة", "image": "i.png", "description": "d", "client_name": "Plant",
	})
	require.NoError(t, err)

	out, err := run(t, deps, "--format", "yaml", "export", "projects", "settings")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	projects := doc["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Equal(t, "Plant", projects[0].(map[string]any)["client_name"])
	assert.Equal(t, "main_config", doc["settings"].(map[string]any)["id"])

	_, err = run(t, deps, "export", "invoices")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	out, err := run(t, testDeps(t), "health")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "healthy"`)
}

func formatID(id float64) string {
	return strconv.FormatFloat(id, 'f', 0, 64)
}
