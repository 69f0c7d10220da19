package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/orchestrator"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/utils"
)

// Submitter starts one user turn and hands back its event stream.
type Submitter interface {
	SubmitTurn(ctx context.Context, conversationID, query string) *orchestrator.Session
}

// ChatRequest is the body of POST /api/v1/chat/stream
type ChatRequest struct {
	Message        string `json:"message" validate:"required,min=1,max=4000"`
	ConversationID string `json:"conversation_id" validate:"omitempty,max=128"`
}

// ChatHandler streams generation output to the client as server-sent
// events. Client disconnect cancels the session through the request
// context.
type ChatHandler struct {
	orchestrator Submitter
	logger       *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(orchestrator Submitter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// sseFrame is one wire frame of the stream. Type is one of: start,
// content, tool_start, filtered, complete, error, end.
type sseFrame struct {
	Type           string   `json:"type"`
	Content        string   `json:"content,omitempty"`
	ToolName       string   `json:"tool_name,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	Error          string   `json:"error,omitempty"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// HandleStream handles POST /api/v1/chat/stream
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), validationDetails(err))
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		_ = utils.WriteInternalServerError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	write := func(frame sseFrame) {
		payload, err := json.Marshal(frame)
		if err != nil {
			h.logger.Error("failed to marshal stream frame", zap.Error(err))
			return
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	write(sseFrame{Type: "start", ConversationID: conversationID})

	sess := h.orchestrator.SubmitTurn(r.Context(), conversationID, req.Message)
	h.logger.Info("chat stream opened",
		zap.String("session_id", sess.ID.String()),
		zap.String("conversation_id", conversationID))

	var toolsUsed []string
	for event := range sess.Events() {
		switch event.Type {
		case orchestrator.EventTokenDelta:
			write(sseFrame{Type: "content", Content: event.Text})
		case orchestrator.EventToolCallRequested:
			toolsUsed = append(toolsUsed, event.ToolCall.Name)
			write(sseFrame{Type: "tool_start", ToolName: event.ToolCall.Name})
		case orchestrator.EventContentFiltered:
			write(sseFrame{Type: "filtered", Reason: event.Reason})
		case orchestrator.EventCompleted:
			write(sseFrame{Type: "complete", ToolsUsed: toolsUsed})
		case orchestrator.EventFailed:
			write(sseFrame{Type: "error", Error: string(event.ErrorKind), Content: event.Message})
		}
	}

	write(sseFrame{Type: "end"})
}
