package repositories

import (
	"context"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
)

// TurnAuditRepository persists per-turn telemetry records. This is
// operational data about pipeline behavior (latency, tool usage,
// terminal status), not chat content; conversation history never goes
// through this interface.
type TurnAuditRepository interface {
	// Insert stores one finished turn record.
	Insert(ctx context.Context, record *models.TurnRecord) error

	// GetByConversationID returns the most recent records for a
	// conversation, newest first.
	GetByConversationID(ctx context.Context, conversationID string, limit int) ([]*models.TurnRecord, error)

	// CountByStatus returns how many records carry the given status.
	CountByStatus(ctx context.Context, status models.TurnStatus) (int64, error)
}
