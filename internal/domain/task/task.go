// Package task models the backend start-task record observed by the poller.
package task

import "time"

// Status represents the lifecycle status of a start task as reported by the
// agent backend. The poller never originates transitions; it only observes.
type Status string

const (
	// Non-terminal states
	StatusWaitingForSandbox Status = "WAITING_FOR_SANDBOX" // Queued, execution environment provisioning
	StatusWorking           Status = "WORKING"              // Sandbox up, conversation being created

	// Terminal states (no further transitions occur)
	StatusReady Status = "READY" // Sub-conversation created
	StatusError Status = "ERROR" // Creation failed
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// IsSuccess returns true for the terminal success state.
func (s Status) IsSuccess() bool {
	return s == StatusReady
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Task is the read-only record returned by the agent backend for a
// sub-conversation creation job. The id is opaque and immutable; the result
// reference is populated only once the task reaches READY.
type Task struct {
	ID                string    `json:"id"`
	Status            Status    `json:"status"`
	SubConversationID *string   `json:"sub_conversation_id,omitempty"`
	Detail            *string   `json:"detail,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ResultReference returns the created sub-conversation id, or "" when the
// task has not produced one.
func (t *Task) ResultReference() string {
	if t == nil || t.SubConversationID == nil {
		return ""
	}
	return *t.SubConversationID
}

// DetailText returns the diagnostic detail, or "" when absent.
func (t *Task) DetailText() string {
	if t == nil || t.Detail == nil {
		return ""
	}
	return *t.Detail
}
