package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
)

func TestMemoryStoreAppendAndHistory(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "conv-1",
		models.Turn{Role: models.RoleUser, Content: "I have a fever"},
		models.Turn{Role: models.RoleAssistant, Content: "How long?"},
	))

	history, err := store.History(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)

	// Unknown conversation is empty, not an error.
	other, err := store.History(ctx, "conv-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryStoreTrimsOldestFirst(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, store.Append(ctx, "conv", models.Turn{Role: models.RoleUser, Content: content}))
	}

	history, err := store.History(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "four", history[2].Content)
}

func TestMemoryStoreHistoryReturnsCopy(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "conv", models.Turn{Role: models.RoleUser, Content: "original"}))

	history, err := store.History(ctx, "conv")
	require.NoError(t, err)
	history[0].Content = "mutated"

	again, err := store.History(ctx, "conv")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "conv", models.Turn{Role: models.RoleUser, Content: "hello"}))
	require.NoError(t, store.Clear(ctx, "conv"))

	history, err := store.History(ctx, "conv")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTrim(t *testing.T) {
	turns := []models.Turn{
		{Content: "a"}, {Content: "b"}, {Content: "c"},
	}

	assert.Len(t, Trim(turns, 2), 2)
	assert.Equal(t, "b", Trim(turns, 2)[0].Content)
	assert.Len(t, Trim(turns, 0), 3) // no cap
	assert.Len(t, Trim(turns, 5), 3)
}
