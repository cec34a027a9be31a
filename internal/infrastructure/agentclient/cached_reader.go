package agentclient

import (
	"context"

	"agent-server/services/conversation-sync/internal/infrastructure/cache"
)

// ConversationFetcher is the backend read the cached reader wraps.
type ConversationFetcher interface {
	GetConversation(ctx context.Context, conversationID string) (*ConversationRecord, error)
}

// CachedReader serves conversation reads through the query cache. Settlement
// invalidates the parent's key, so the next read observes the newly linked
// sub-conversation.
type CachedReader struct {
	fetcher ConversationFetcher
	queries cache.QueryCache
}

// NewCachedReader wraps a backend fetcher with the query cache.
func NewCachedReader(fetcher ConversationFetcher, queries cache.QueryCache) *CachedReader {
	return &CachedReader{fetcher: fetcher, queries: queries}
}

// GetConversation returns the cached record, filling from the backend on a
// miss. Errors are never cached.
func (r *CachedReader) GetConversation(ctx context.Context, conversationID string) (*ConversationRecord, error) {
	key := cache.ConversationKey(conversationID)
	if value, ok := r.queries.Get(key); ok {
		if record, ok := value.(*ConversationRecord); ok {
			return record, nil
		}
	}

	record, err := r.fetcher.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	r.queries.Set(key, record)
	return record, nil
}
