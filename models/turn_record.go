package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnStatus represents the terminal (or in-flight) status of a chat turn
type TurnStatus string

const (
	TurnStatusPending    TurnStatus = "pending"
	TurnStatusProcessing TurnStatus = "processing"
	TurnStatusCompleted  TurnStatus = "completed"
	TurnStatusFiltered   TurnStatus = "filtered" // completed after a content-filter trip
	TurnStatusFailed     TurnStatus = "failed"
)

// TurnRecord is the operational telemetry row written for every user turn.
// It records what happened to the turn (latency, tools used, error kind),
// never the conversation text itself.
type TurnRecord struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ConversationID string     `json:"conversation_id" db:"conversation_id"`
	Status         TurnStatus `json:"status" db:"status"`

	// Provider details
	Provider string `json:"provider" db:"provider"`
	Model    string `json:"model" db:"model"`

	// Pipeline metrics
	PassagesRetrieved int   `json:"passages_retrieved" db:"passages_retrieved"`
	ToolRounds        int   `json:"tool_rounds" db:"tool_rounds"`
	TokensStreamed    int   `json:"tokens_streamed" db:"tokens_streamed"`
	LatencyMs         int   `json:"latency_ms" db:"latency_ms"`

	// Tools invoked during the turn, in invocation order
	ToolsUsed []string `json:"tools_used" db:"tools_used"`

	// Error handling
	ErrorKind *string `json:"error_kind,omitempty" db:"error_kind"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// TableName returns the table name for the TurnRecord model
func (TurnRecord) TableName() string {
	return "turn_records"
}

// NewTurnRecord creates a pending record for a freshly submitted turn
func NewTurnRecord(conversationID, provider, model string) *TurnRecord {
	return &TurnRecord{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Status:         TurnStatusPending,
		Provider:       provider,
		Model:          model,
		CreatedAt:      time.Now(),
	}
}

// MarkAsProcessing marks the turn as having started generation
func (tr *TurnRecord) MarkAsProcessing() {
	tr.Status = TurnStatusProcessing
}

// MarkAsCompleted marks the turn as completed; filtered reports whether a
// content filter tripped before completion
func (tr *TurnRecord) MarkAsCompleted(filtered bool) {
	if filtered {
		tr.Status = TurnStatusFiltered
	} else {
		tr.Status = TurnStatusCompleted
	}
	now := time.Now()
	tr.CompletedAt = &now
	tr.LatencyMs = int(now.Sub(tr.CreatedAt).Milliseconds())
}

// MarkAsFailed marks the turn as failed with a stable error kind
func (tr *TurnRecord) MarkAsFailed(errorKind string) {
	tr.Status = TurnStatusFailed
	tr.ErrorKind = &errorKind
	now := time.Now()
	tr.CompletedAt = &now
	tr.LatencyMs = int(now.Sub(tr.CreatedAt).Milliseconds())
}

// RecordTool appends a tool name to the usage list. Round counting is
// separate because one round may carry several calls.
func (tr *TurnRecord) RecordTool(name string) {
	tr.ToolsUsed = append(tr.ToolsUsed, name)
}
