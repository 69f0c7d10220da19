package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
)

func newMockRepo(t *testing.T) (*TurnRecordRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	return &TurnRecordRepository{db: db, logger: zap.NewNop()}, mock
}

func TestInsertTurnRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	record := models.NewTurnRecord("conv-1", "openai", "gpt-4o-mini")
	record.PassagesRetrieved = 3
	record.RecordTool("find_hospitals")
	record.ToolRounds = 1
	record.TokensStreamed = 42
	record.MarkAsCompleted(false)

	mock.ExpectExec("INSERT INTO turn_records").
		WithArgs(
			record.ID,
			"conv-1",
			models.TurnStatusCompleted,
			"openai",
			"gpt-4o-mini",
			3,
			1,
			42,
			record.LatencyMs,
			pq.Array([]string{"find_hospitals"}),
			nil,
			record.CreatedAt,
			record.CompletedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTurnRecordFailed(t *testing.T) {
	repo, mock := newMockRepo(t)

	record := models.NewTurnRecord("conv-1", "openai", "gpt-4o-mini")
	record.MarkAsFailed("retrieval_error")

	mock.ExpectExec("INSERT INTO turn_records").
		WithArgs(
			record.ID,
			"conv-1",
			models.TurnStatusFailed,
			"openai",
			"gpt-4o-mini",
			0,
			0,
			0,
			record.LatencyMs,
			pq.Array([]string(nil)),
			record.ErrorKind,
			record.CreatedAt,
			record.CompletedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByConversationID(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	record := models.NewTurnRecord("conv-1", "openai", "gpt-4o-mini")

	rows := sqlmock.NewRows([]string{
		"id", "conversation_id", "status", "provider", "model",
		"passages_retrieved", "tool_rounds", "tokens_streamed", "latency_ms",
		"tools_used", "error_kind", "created_at", "completed_at",
	}).AddRow(
		record.ID, "conv-1", "completed", "openai", "gpt-4o-mini",
		3, 1, 42, 850,
		"{find_hospitals}", nil, now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM turn_records").
		WithArgs("conv-1", 10).
		WillReturnRows(rows)

	records, err := repo.GetByConversationID(context.Background(), "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "conv-1", records[0].ConversationID)
	assert.Equal(t, models.TurnStatusCompleted, records[0].Status)
	assert.Equal(t, []string{"find_hospitals"}, records[0].ToolsUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(models.TurnStatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByStatus(context.Background(), models.TurnStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
