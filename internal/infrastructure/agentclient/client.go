// Package agentclient talks to the agent backend that owns tasks and
// conversations. This service only reads from it.
package agentclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"agent-server/services/conversation-sync/internal/domain/task"
)

// ErrNotFound is returned when the backend has no record for the id.
var ErrNotFound = fmt.Errorf("agent backend: not found")

// ConversationRecord is the backend's view of a conversation, cached by the
// read path and refetched after successful settlement.
type ConversationRecord struct {
	ID                 string    `json:"id"`
	Title              *string   `json:"title,omitempty"`
	Status             string    `json:"status"`
	SubConversationIDs []string  `json:"sub_conversation_ids,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Client implements the task and conversation read contracts over HTTP.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Resty-backed client for the agent backend.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

// GetStartTask fetches the current snapshot of a start task.
func (c *Client) GetStartTask(ctx context.Context, taskID string) (*task.Task, error) {
	var record task.Task
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&record).
		SetPathParam("task_id", taskID).
		Get("/v1/tasks/{task_id}")
	if err != nil {
		return nil, fmt.Errorf("get start task %s: %w", taskID, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("get start task %s: %w", taskID, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get start task %s: backend returned %d: %s", taskID, resp.StatusCode(), resp.String())
	}
	return &record, nil
}

// GetConversation fetches a conversation record from the backend.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*ConversationRecord, error) {
	var record ConversationRecord
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&record).
		SetPathParam("conversation_id", conversationID).
		Get("/v1/conversations/{conversation_id}")
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", conversationID, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("get conversation %s: %w", conversationID, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get conversation %s: backend returned %d: %s", conversationID, resp.StatusCode(), resp.String())
	}
	return &record, nil
}
