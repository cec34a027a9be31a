// Package statestore provides persisted conversation state backends. All
// implementations satisfy conversation.StateStore with read-modify-merge
// write semantics.
package statestore

import (
	"context"
	"strings"
	"sync"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/infrastructure/metrics"
)

// MemoryStore keeps conversation state in process memory. Used for tests and
// single-node development runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]conversation.LocalState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]conversation.LocalState),
	}
}

// Get returns the stored record, falling back to defaults when absent.
func (s *MemoryStore) Get(ctx context.Context, conversationID string) (conversation.LocalState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.records[conversation.StateKey(conversationID)]
	if !ok {
		return conversation.DefaultState(), nil
	}
	return state, nil
}

// Merge applies the patch over the stored record (or defaults) and persists
// the result.
func (s *MemoryStore) Merge(ctx context.Context, conversationID string, patch conversation.StatePatch) (conversation.LocalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversation.StateKey(conversationID)
	state, ok := s.records[key]
	if !ok {
		state = conversation.DefaultState()
	}
	state = patch.Apply(state)
	s.records[key] = state
	metrics.StateWritesTotal.WithLabelValues("memory").Inc()
	return state, nil
}

// ClearTaskID nulls the task id only while the stored value still matches.
func (s *MemoryStore) ClearTaskID(ctx context.Context, conversationID, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversation.StateKey(conversationID)
	state, ok := s.records[key]
	if !ok || state.SubConversationTaskID == nil || *state.SubConversationTaskID != taskID {
		return false, nil
	}
	s.records[key] = conversation.ClearTaskIDPatch().Apply(state)
	metrics.StateWritesTotal.WithLabelValues("memory").Inc()
	return true, nil
}

// Delete removes the stored record for a conversation.
func (s *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, conversation.StateKey(conversationID))
	return nil
}

// InFlight lists conversations with an unresolved task id.
func (s *MemoryStore) InFlight(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inflight := make(map[string]string)
	for key, state := range s.records {
		if state.SubConversationTaskID != nil {
			conversationID := strings.TrimPrefix(key, conversation.StateKeyPrefix)
			inflight[conversationID] = *state.SubConversationTaskID
		}
	}
	return inflight, nil
}

var _ conversation.StateStore = (*MemoryStore)(nil)
