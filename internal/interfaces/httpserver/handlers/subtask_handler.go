package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/interfaces/httpserver/requests"
	"agent-server/services/conversation-sync/internal/interfaces/httpserver/responses"
	"agent-server/services/conversation-sync/internal/worker"
)

// SubtaskHandler exposes HTTP entrypoints for sub-conversation task tracking.
type SubtaskHandler struct {
	tracker *worker.Tracker
	states  conversation.StateStore
	log     zerolog.Logger
}

// NewSubtaskHandler constructs the handler.
func NewSubtaskHandler(tracker *worker.Tracker, states conversation.StateStore, log zerolog.Logger) *SubtaskHandler {
	return &SubtaskHandler{
		tracker: tracker,
		states:  states,
		log:     log.With().Str("handler", "subtask").Logger(),
	}
}

// Track handles POST /v1/conversations/:conversation_id/subtask
func (h *SubtaskHandler) Track(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.TrackSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tracker.Track(c.Request.Context(), conversationID, req.TaskID); err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("track failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.log.Info().
		Str("conversation_id", conversationID).
		Str("task_id", req.TaskID).
		Msg("tracking sub-conversation task")

	snap, active := h.tracker.Snapshot(conversationID)
	c.JSON(http.StatusAccepted, responses.FromSnapshot(conversationID, &req.TaskID, snap, active))
}

// Get handles GET /v1/conversations/:conversation_id/subtask
func (h *SubtaskHandler) Get(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	state, err := h.states.Get(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	snap, active := h.tracker.Snapshot(conversationID)
	c.JSON(http.StatusOK, responses.FromSnapshot(conversationID, state.SubConversationTaskID, snap, active))
}

// Untrack handles DELETE /v1/conversations/:conversation_id/subtask
func (h *SubtaskHandler) Untrack(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	if err := h.tracker.Untrack(c.Request.Context(), conversationID); err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("untrack failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "tracking": false})
}
