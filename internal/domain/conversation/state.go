// Package conversation defines the per-conversation local state record and
// the contracts for the stores that hold it.
package conversation

// StateKeyPrefix namespaces persisted records by conversation id. The full
// storage key is StateKeyPrefix + conversationID.
const StateKeyPrefix = "conversation_state_"

// Default UI values applied when a conversation has no stored record yet.
const (
	DefaultSelectedTab     = "editor"
	DefaultRightPanelShown = true
)

// LocalState is the small per-conversation record persisted by the service.
// SubConversationTaskID is non-nil exactly while a sub-conversation creation
// task is in flight and unresolved for this conversation.
type LocalState struct {
	SelectedTab           string   `json:"selected_tab"`
	RightPanelShown       bool     `json:"right_panel_shown"`
	UnpinnedTabs          []string `json:"unpinned_tabs"`
	SubConversationTaskID *string  `json:"sub_conversation_task_id"`
}

// DefaultState returns the record used when nothing is stored yet.
func DefaultState() LocalState {
	return LocalState{
		SelectedTab:     DefaultSelectedTab,
		RightPanelShown: DefaultRightPanelShown,
		UnpinnedTabs:    []string{},
	}
}

// NullableString distinguishes "set to this value" from "set to null" in a
// patch. A nil *NullableString field means the field is left untouched.
type NullableString struct {
	Valid bool   `json:"valid"`
	Value string `json:"value"`
}

// StatePatch names the fields a write intends to overwrite. Nil fields are
// preserved as stored, so concurrent unrelated writers never clobber each
// other; merge-on-write is the correctness mechanism here, not locking.
type StatePatch struct {
	SelectedTab           *string         `json:"selected_tab,omitempty"`
	RightPanelShown       *bool           `json:"right_panel_shown,omitempty"`
	UnpinnedTabs          *[]string       `json:"unpinned_tabs,omitempty"`
	SubConversationTaskID *NullableString `json:"sub_conversation_task_id,omitempty"`
}

// IsZero reports whether the patch names no fields at all.
func (p StatePatch) IsZero() bool {
	return p.SelectedTab == nil && p.RightPanelShown == nil &&
		p.UnpinnedTabs == nil && p.SubConversationTaskID == nil
}

// Apply merges the patch into the given state and returns the result. Only
// named fields change; setting SubConversationTaskID to null when it is
// already null yields an identical record.
func (p StatePatch) Apply(s LocalState) LocalState {
	if p.SelectedTab != nil {
		s.SelectedTab = *p.SelectedTab
	}
	if p.RightPanelShown != nil {
		s.RightPanelShown = *p.RightPanelShown
	}
	if p.UnpinnedTabs != nil {
		tabs := make([]string, len(*p.UnpinnedTabs))
		copy(tabs, *p.UnpinnedTabs)
		s.UnpinnedTabs = tabs
	}
	if p.SubConversationTaskID != nil {
		if p.SubConversationTaskID.Valid {
			value := p.SubConversationTaskID.Value
			s.SubConversationTaskID = &value
		} else {
			s.SubConversationTaskID = nil
		}
	}
	return s
}

// SetTaskIDPatch builds a patch that records an in-flight task id.
func SetTaskIDPatch(taskID string) StatePatch {
	return StatePatch{
		SubConversationTaskID: &NullableString{Valid: true, Value: taskID},
	}
}

// ClearTaskIDPatch builds the settlement patch that releases the in-flight
// task id. Applying it twice leaves the record unchanged after the first.
func ClearTaskIDPatch() StatePatch {
	return StatePatch{
		SubConversationTaskID: &NullableString{},
	}
}

// StateKey returns the namespaced storage key for a conversation.
func StateKey(conversationID string) string {
	return StateKeyPrefix + conversationID
}
