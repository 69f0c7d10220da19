package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/session"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/utils"
)

// ConversationHandler exposes the session history store: read a
// conversation's turns or clear them.
type ConversationHandler struct {
	store  session.Store
	logger *zap.Logger
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(store session.Store, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		store:  store,
		logger: logger,
	}
}

// ConversationResponse is the body of GET /api/v1/conversation/{id}
type ConversationResponse struct {
	ConversationID string        `json:"conversation_id"`
	Turns          []models.Turn `json:"turns"`
}

// HandleGet handles GET /api/v1/conversation/{id}
func (h *ConversationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if conversationID == "" {
		_ = utils.WriteBadRequest(w, "conversation id is required", nil)
		return
	}

	turns, err := h.store.History(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to load conversation history",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "failed to load conversation history")
		return
	}

	if turns == nil {
		turns = []models.Turn{}
	}
	_ = utils.WriteOK(w, ConversationResponse{
		ConversationID: conversationID,
		Turns:          turns,
	})
}

// HandleDelete handles DELETE /api/v1/conversation/{id}
func (h *ConversationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if conversationID == "" {
		_ = utils.WriteBadRequest(w, "conversation id is required", nil)
		return
	}

	if err := h.store.Clear(r.Context(), conversationID); err != nil {
		h.logger.Error("failed to clear conversation history",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "failed to clear conversation history")
		return
	}

	h.logger.Info("conversation cleared", zap.String("conversation_id", conversationID))
	utils.WriteNoContent(w)
}
