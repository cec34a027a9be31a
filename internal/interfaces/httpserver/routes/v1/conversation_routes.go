package v1

import (
	"github.com/gin-gonic/gin"

	"agent-server/services/conversation-sync/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRouter, p *handlers.Provider) {
	conversations := router.Group("/conversations")

	conversations.GET("/:conversation_id", p.Conversation.Get)

	conversations.GET("/:conversation_id/state", p.State.Get)
	conversations.PATCH("/:conversation_id/state", p.State.Update)

	conversations.POST("/:conversation_id/subtask", p.Subtask.Track)
	conversations.GET("/:conversation_id/subtask", p.Subtask.Get)
	conversations.DELETE("/:conversation_id/subtask", p.Subtask.Untrack)
}
