package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completerFunc func(ctx context.Context, p Prompt) (string, error)

func (f completerFunc) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

func newTranscript(t *testing.T, limit int) *Transcript {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return NewTranscript(localstore.New(db), limit)
}

func TestNewVisitorGetsGreeting(t *testing.T) {
	tr := newTranscript(t, 10)
	msgs, err := tr.Load(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, []Message{{Role: RoleModel, Text: Greeting}}, msgs)
}

func TestTranscriptIsCapped(t *testing.T) {
	tr := newTranscript(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tr.Append(ctx, "v1", Message{Role: RoleUser, Text: fmt.Sprint(i)})
		require.NoError(t, err)
	}
	msgs, err := tr.Load(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []Message{{RoleUser, "2"}, {RoleUser, "3"}, {RoleUser, "4"}}, msgs)

	other, err := tr.Load(ctx, "v2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	require.NoError(t, tr.Clear(ctx, "v1"))
	msgs, err = tr.Load(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, Greeting, msgs[0].Text)
}

func TestAssistantSend(t *testing.T) {
	ctx := context.Background()
	var prompt Prompt
	a := NewAssistant(newTranscript(t, 50), completerFunc(func(_ context.Context, p Prompt) (string, error) {
		prompt = p
		return "نعم", nil
	}))

	msgs, err := a.Send(ctx, "v1", "هل تصلحون المولدات؟")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{RoleUser, "هل تصلحون المولدات؟"}, msgs[1])
	assert.Equal(t, Message{RoleModel, "نعم"}, msgs[2])
	assert.Equal(t, SystemInstruction, prompt.System)

	_, err = a.Send(ctx, "v1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAssistantFallbacks(t *testing.T) {
	ctx := context.Background()

	a := NewAssistant(newTranscript(t, 50), Offline{})
	msgs, err := a.Send(ctx, "v1", "hello")
	require.NoError(t, err)
	assert.Equal(t, ConnectionFailure, msgs[len(msgs)-1].Text)

	a.completer = completerFunc(func(context.Context, Prompt) (string, error) { return "", nil })
	msgs, err = a.Send(ctx, "v1", "hello")
	require.NoError(t, err)
	assert.Equal(t, EmptyReply, msgs[len(msgs)-1].Text)

	history, err := a.History(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, history, 5)
}
