// Package cache provides the keyed query cache consulted by conversation
// reads and invalidated by task settlement.
package cache

import "strings"

// keySeparator joins key segments; a control character keeps distinct
// compound keys from colliding on segment boundaries.
const keySeparator = "\x1f"

// Key is a compound cache key, e.g. ["user","conversation","conv-123"].
type Key []string

// String renders the key for storage and logging.
func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

// ConversationKey addresses exactly one conversation's cached record.
func ConversationKey(conversationID string) Key {
	return Key{"user", "conversation", conversationID}
}

// QueryCache caches fetched records by compound key and supports targeted
// invalidation. Invalidating a key affects only that key.
type QueryCache interface {
	Get(key Key) (any, bool)
	Set(key Key, value any)
	Invalidate(key Key)
}
