// Package livestore holds the in-memory mirror of in-flight sub-conversation
// task ids. Persisted storage stays authoritative; this store exists so
// readers can observe settlement without re-reading persisted state.
package livestore

import (
	"sync"

	"agent-server/services/conversation-sync/internal/domain/conversation"
)

const watchBuffer = 16

// Store is a dependency-injected state container; tests instantiate isolated
// instances instead of sharing a package-level singleton.
type Store struct {
	mu       sync.RWMutex
	taskIDs  map[string]*string
	watchers map[string]map[int]chan *string
	nextID   int
}

// New creates an empty live store.
func New() *Store {
	return &Store{
		taskIDs:  make(map[string]*string),
		watchers: make(map[string]map[int]chan *string),
	}
}

// SetSubConversationTaskID records the in-flight task id for a conversation
// (nil clears it) and notifies watchers.
func (s *Store) SetSubConversationTaskID(conversationID string, taskID *string) {
	s.mu.Lock()
	if taskID == nil {
		delete(s.taskIDs, conversationID)
	} else {
		value := *taskID
		s.taskIDs[conversationID] = &value
	}
	channels := make([]chan *string, 0, len(s.watchers[conversationID]))
	for _, ch := range s.watchers[conversationID] {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- copyID(taskID):
		default:
			// Slow watcher; it will catch up via SubConversationTaskID.
		}
	}
}

// ClearTaskID clears the mirrored id only while it still equals taskID, so a
// settlement for a superseded task cannot wipe the newer task's marker.
func (s *Store) ClearTaskID(conversationID, taskID string) bool {
	s.mu.Lock()
	current, ok := s.taskIDs[conversationID]
	if !ok || current == nil || *current != taskID {
		s.mu.Unlock()
		return false
	}
	delete(s.taskIDs, conversationID)
	channels := make([]chan *string, 0, len(s.watchers[conversationID]))
	for _, ch := range s.watchers[conversationID] {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- nil:
		default:
		}
	}
	return true
}

// SubConversationTaskID returns the mirrored task id, or nil when none is in
// flight.
func (s *Store) SubConversationTaskID(conversationID string) *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyID(s.taskIDs[conversationID])
}

// Watch streams task id changes for a conversation. The cancel func must be
// called to release the watcher.
func (s *Store) Watch(conversationID string) (<-chan *string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan *string, watchBuffer)
	if s.watchers[conversationID] == nil {
		s.watchers[conversationID] = make(map[int]chan *string)
	}
	s.watchers[conversationID][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.watchers[conversationID]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(s.watchers, conversationID)
			}
		}
	}
	return ch, cancel
}

func copyID(taskID *string) *string {
	if taskID == nil {
		return nil
	}
	value := *taskID
	return &value
}

var _ conversation.LiveStore = (*Store)(nil)
