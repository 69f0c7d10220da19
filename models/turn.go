package models

import (
	"time"
)

// Role identifies who produced a conversation turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall records a structured tool invocation requested by the model
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object as emitted by the model
}

// Turn is a single entry in a conversation. Turns are owned by the
// session that created them and are never shared by reference across
// sessions; callers that need to reuse history must copy it first.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant turns that requested tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool turn back to the assistant request it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CopyTurns returns a deep copy of a history slice so a new session can
// mutate its own view without affecting the shared store.
func CopyTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	for i := range out {
		if len(turns[i].ToolCalls) > 0 {
			out[i].ToolCalls = make([]ToolCall, len(turns[i].ToolCalls))
			copy(out[i].ToolCalls, turns[i].ToolCalls)
		}
	}
	return out
}
