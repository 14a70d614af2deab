package localstore

import (
	"context"
	"testing"

	"github.com/areiqi/sitedb/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return New(db)
}

func TestSetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "theme", "dark"))
	require.NoError(t, s.Set(ctx, "theme", "light"))

	v, ok, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v)

	require.NoError(t, s.Remove(ctx, "theme"))
	require.NoError(t, s.Remove(ctx, "theme"))
	_, ok, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	type session struct {
		Name string `json:"name"`
	}
	require.NoError(t, s.SetJSON(ctx, "areiqi_session_v10/abc", session{Name: "سامي"}))

	var got session
	ok, err := s.GetJSON(ctx, "areiqi_session_v10/abc", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "سامي", got.Name)

	require.NoError(t, s.Set(ctx, "broken", "{"))
	ok, err = s.GetJSON(ctx, "broken", &got)
	assert.True(t, ok)
	assert.Error(t, err)
}
