package requests

import "agent-server/services/conversation-sync/internal/domain/conversation"

// UpdateStateRequest is a partial write to a conversation's local state.
// Absent fields are left untouched by the merge.
type UpdateStateRequest struct {
	SelectedTab     *string   `json:"selected_tab"`
	RightPanelShown *bool     `json:"right_panel_shown"`
	UnpinnedTabs    *[]string `json:"unpinned_tabs"`
}

// ToPatch maps the request onto a domain patch. The in-flight task id is not
// writable through this request; it is owned by the subtask routes.
func (r UpdateStateRequest) ToPatch() conversation.StatePatch {
	return conversation.StatePatch{
		SelectedTab:     r.SelectedTab,
		RightPanelShown: r.RightPanelShown,
		UnpinnedTabs:    r.UnpinnedTabs,
	}
}

// TrackSubtaskRequest starts tracking a sub-conversation creation task.
type TrackSubtaskRequest struct {
	TaskID string `json:"task_id" binding:"required"`
}
