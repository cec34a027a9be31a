package conversation

import "context"

// StateStore persists per-conversation local state. Implementations must
// return DefaultState merged with any stored partial record from Get, and
// must apply Merge as a read-modify-merge so unspecified fields survive.
// Persisted storage is the source of truth for SubConversationTaskID.
type StateStore interface {
	Get(ctx context.Context, conversationID string) (LocalState, error)
	Merge(ctx context.Context, conversationID string, patch StatePatch) (LocalState, error)
	Delete(ctx context.Context, conversationID string) error

	// ClearTaskID nulls SubConversationTaskID only while the stored value
	// still equals taskID, atomically, and reports whether it did. A
	// settlement for a superseded task compares false and must not touch
	// the record.
	ClearTaskID(ctx context.Context, conversationID, taskID string) (bool, error)

	// InFlight lists conversations with a non-null SubConversationTaskID,
	// keyed by conversation id. Used to resume tracking after a restart.
	InFlight(ctx context.Context) (map[string]string, error)
}

// LiveStore mirrors the in-flight sub-conversation task id for reactive
// readers. It is a cache of that one field, never an independent source of
// truth.
type LiveStore interface {
	SetSubConversationTaskID(conversationID string, taskID *string)
	SubConversationTaskID(conversationID string) *string

	// ClearTaskID clears the mirrored id only while it still equals taskID
	// and reports whether it did.
	ClearTaskID(conversationID, taskID string) bool

	// Watch streams task id changes for a conversation until the returned
	// cancel func is called.
	Watch(conversationID string) (<-chan *string, func())
}
