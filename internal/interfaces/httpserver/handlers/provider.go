package handlers

import (
	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/infrastructure/agentclient"
	"agent-server/services/conversation-sync/internal/worker"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	State        *StateHandler
	Subtask      *SubtaskHandler
	Conversation *ConversationHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	tracker *worker.Tracker,
	states conversation.StateStore,
	reader *agentclient.CachedReader,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		State:        NewStateHandler(states, log),
		Subtask:      NewSubtaskHandler(tracker, states, log),
		Conversation: NewConversationHandler(reader, log),
	}
}
