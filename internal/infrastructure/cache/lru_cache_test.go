package cache

import "testing"

func TestConversationKey(t *testing.T) {
	key := ConversationKey("parent-conv-123")
	want := Key{"user", "conversation", "parent-conv-123"}
	if len(key) != len(want) {
		t.Fatalf("ConversationKey() = %v, want %v", key, want)
	}
	for i := range want {
		if key[i] != want[i] {
			t.Errorf("segment %d = %q, want %q", i, key[i], want[i])
		}
	}
}

func TestKey_String_NoBoundaryCollision(t *testing.T) {
	a := Key{"user", "conversation-x"}
	b := Key{"user", "conversation", "x"}
	if a.String() == b.String() {
		t.Errorf("distinct keys rendered identically: %q", a.String())
	}
}

func TestLRUCache_SetGetInvalidate(t *testing.T) {
	c, err := NewLRUCache(8)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	key := ConversationKey("conv-1")
	if _, ok := c.Get(key); ok {
		t.Error("empty cache returned a hit")
	}

	c.Set(key, "record")
	got, ok := c.Get(key)
	if !ok || got != "record" {
		t.Errorf("Get() = %v, %v; want record, true", got, ok)
	}

	c.Invalidate(key)
	if _, ok := c.Get(key); ok {
		t.Error("invalidated key still cached")
	}
}

func TestLRUCache_InvalidateIsTargeted(t *testing.T) {
	c, err := NewLRUCache(8)
	if err != nil {
		t.Fatalf("NewLRUCache() error: %v", err)
	}

	c.Set(ConversationKey("conv-1"), "one")
	c.Set(ConversationKey("conv-2"), "two")

	c.Invalidate(ConversationKey("conv-1"))

	if _, ok := c.Get(ConversationKey("conv-1")); ok {
		t.Error("conv-1 still cached after invalidation")
	}
	if got, ok := c.Get(ConversationKey("conv-2")); !ok || got != "two" {
		t.Error("invalidation of conv-1 disturbed conv-2")
	}
}

func TestNewLRUCache_RejectsNonPositiveSize(t *testing.T) {
	if _, err := NewLRUCache(0); err == nil {
		t.Error("expected error for zero size")
	}
}
