package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/interfaces/httpserver/requests"
	"agent-server/services/conversation-sync/internal/interfaces/httpserver/responses"
)

// StateHandler exposes HTTP entrypoints for per-conversation local state.
type StateHandler struct {
	states conversation.StateStore
	log    zerolog.Logger
}

// NewStateHandler constructs the handler.
func NewStateHandler(states conversation.StateStore, log zerolog.Logger) *StateHandler {
	return &StateHandler{
		states: states,
		log:    log.With().Str("handler", "state").Logger(),
	}
}

// Get handles GET /v1/conversations/:conversation_id/state
func (h *StateHandler) Get(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	state, err := h.states.Get(c.Request.Context(), conversationID)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("read state failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, responses.FromLocalState(conversationID, state))
}

// Update handles PATCH /v1/conversations/:conversation_id/state
func (h *StateHandler) Update(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := req.ToPatch()
	if patch.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patch names no fields"})
		return
	}

	state, err := h.states.Merge(c.Request.Context(), conversationID, patch)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("merge state failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, responses.FromLocalState(conversationID, state))
}
