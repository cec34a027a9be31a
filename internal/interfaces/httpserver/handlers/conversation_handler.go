package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/infrastructure/agentclient"
)

// ConversationHandler serves conversation records through the query cache.
type ConversationHandler struct {
	reader *agentclient.CachedReader
	log    zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(reader *agentclient.CachedReader, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		reader: reader,
		log:    log.With().Str("handler", "conversation").Logger(),
	}
}

// Get handles GET /v1/conversations/:conversation_id
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	record, err := h.reader.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, agentclient.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("conversation fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}
