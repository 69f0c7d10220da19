package session

import (
	"context"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
)

// Store keeps bounded conversation history for active conversations.
// History is scoped to the conversation lifetime; nothing here is a
// durable chat archive. Implementations must be safe for concurrent use,
// and History must return a copy the caller owns.
type Store interface {
	// History returns the stored turns for a conversation, oldest first.
	// An unknown conversation yields an empty slice, not an error.
	History(ctx context.Context, conversationID string) ([]models.Turn, error)

	// Append adds turns to a conversation, trimming the oldest entries
	// when the configured cap is exceeded.
	Append(ctx context.Context, conversationID string, turns ...models.Turn) error

	// Clear removes all history for a conversation.
	Clear(ctx context.Context, conversationID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Trim drops the oldest turns so at most maxTurns remain. User-visible
// history is trimmed at turn granularity, never mid-turn.
func Trim(turns []models.Turn, maxTurns int) []models.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return turns[len(turns)-maxTurns:]
}
