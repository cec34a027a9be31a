package responses

import (
	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/worker"
)

// StatePayload is the per-conversation local state returned to clients.
type StatePayload struct {
	ConversationID        string   `json:"conversation_id"`
	SelectedTab           string   `json:"selected_tab"`
	RightPanelShown       bool     `json:"right_panel_shown"`
	UnpinnedTabs          []string `json:"unpinned_tabs"`
	SubConversationTaskID *string  `json:"sub_conversation_task_id"`
}

// FromLocalState maps the domain record to a payload.
func FromLocalState(conversationID string, s conversation.LocalState) StatePayload {
	return StatePayload{
		ConversationID:        conversationID,
		SelectedTab:           s.SelectedTab,
		RightPanelShown:       s.RightPanelShown,
		UnpinnedTabs:          s.UnpinnedTabs,
		SubConversationTaskID: s.SubConversationTaskID,
	}
}

// SubtaskPayload exposes the poller's read-only view alongside the persisted
// task id.
type SubtaskPayload struct {
	ConversationID  string  `json:"conversation_id"`
	TaskID          *string `json:"task_id"`
	Active          bool    `json:"active"`
	Status          string  `json:"status,omitempty"`
	Detail          string  `json:"detail,omitempty"`
	ResultReference string  `json:"result_reference,omitempty"`
	Error           string  `json:"error,omitempty"`
	Loading         bool    `json:"loading"`
	Settled         bool    `json:"settled"`
}

// FromSnapshot maps a poller snapshot to a payload.
func FromSnapshot(conversationID string, taskID *string, snap worker.Snapshot, active bool) SubtaskPayload {
	payload := SubtaskPayload{
		ConversationID: conversationID,
		TaskID:         taskID,
		Active:         active,
	}
	if !active {
		return payload
	}

	payload.Status = snap.Status.String()
	payload.Detail = snap.Detail
	payload.ResultReference = snap.ResultReference
	payload.Loading = snap.Loading
	payload.Settled = snap.Settled
	if snap.Err != nil {
		payload.Error = snap.Err.Error()
	}
	return payload
}
