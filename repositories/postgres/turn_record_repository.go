package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/repositories"
)

// TurnRecordRepository implements repositories.TurnAuditRepository
type TurnRecordRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTurnRecordRepository creates a new turn record repository
func NewTurnRecordRepository(db *DB, logger *zap.Logger) repositories.TurnAuditRepository {
	return &TurnRecordRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores one finished turn record. Called from the async audit
// workers, never from the request path.
func (r *TurnRecordRepository) Insert(ctx context.Context, record *models.TurnRecord) error {
	query := `
		INSERT INTO turn_records (
			id, conversation_id, status, provider, model,
			passages_retrieved, tool_rounds, tokens_streamed, latency_ms,
			tools_used, error_kind, created_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.ConversationID,
		record.Status,
		record.Provider,
		record.Model,
		record.PassagesRetrieved,
		record.ToolRounds,
		record.TokensStreamed,
		record.LatencyMs,
		pq.Array(record.ToolsUsed),
		record.ErrorKind,
		record.CreatedAt,
		record.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert turn record: %w", err)
	}

	r.logger.Debug("turn record inserted",
		zap.String("id", record.ID.String()),
		zap.String("status", string(record.Status)))
	return nil
}

// GetByConversationID returns the most recent records for a
// conversation, newest first.
func (r *TurnRecordRepository) GetByConversationID(ctx context.Context, conversationID string, limit int) ([]*models.TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, conversation_id, status, provider, model,
		       passages_retrieved, tool_rounds, tokens_streamed, latency_ms,
		       tools_used, error_kind, created_at, completed_at
		FROM turn_records
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turn records: %w", err)
	}
	defer rows.Close()

	var records []*models.TurnRecord
	for rows.Next() {
		var record models.TurnRecord
		if err := rows.Scan(
			&record.ID,
			&record.ConversationID,
			&record.Status,
			&record.Provider,
			&record.Model,
			&record.PassagesRetrieved,
			&record.ToolRounds,
			&record.TokensStreamed,
			&record.LatencyMs,
			pq.Array(&record.ToolsUsed),
			&record.ErrorKind,
			&record.CreatedAt,
			&record.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan turn record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn records: %w", err)
	}

	return records, nil
}

// CountByStatus returns how many records carry the given status
func (r *TurnRecordRepository) CountByStatus(ctx context.Context, status models.TurnStatus) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turn_records WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turn records: %w", err)
	}
	return count, nil
}
