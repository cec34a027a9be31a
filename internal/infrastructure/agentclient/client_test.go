package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agent-server/services/conversation-sync/internal/domain/task"
)

func TestClient_GetStartTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tasks/task-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":                  "task-123",
			"status":              "READY",
			"sub_conversation_id": "sub-conv-456",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	got, err := client.GetStartTask(context.Background(), "task-123")
	if err != nil {
		t.Fatalf("GetStartTask() error: %v", err)
	}

	if got.ID != "task-123" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Status != task.StatusReady {
		t.Errorf("Status = %q, want READY", got.Status)
	}
	if got.ResultReference() != "sub-conv-456" {
		t.Errorf("ResultReference() = %q, want sub-conv-456", got.ResultReference())
	}
}

func TestClient_GetStartTask_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.GetStartTask(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetStartTask_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.GetStartTask(context.Background(), "task-123")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestClient_GetStartTask_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.GetStartTask(context.Background(), "task-123")
	if err == nil {
		t.Fatal("expected transport error")
	}
}

func TestClient_GetConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/conversations/parent-conv-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":                   "parent-conv-123",
			"status":               "active",
			"sub_conversation_ids": []string{"sub-conv-456"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	got, err := client.GetConversation(context.Background(), "parent-conv-123")
	if err != nil {
		t.Fatalf("GetConversation() error: %v", err)
	}

	if got.ID != "parent-conv-123" {
		t.Errorf("ID = %q", got.ID)
	}
	if len(got.SubConversationIDs) != 1 || got.SubConversationIDs[0] != "sub-conv-456" {
		t.Errorf("SubConversationIDs = %v", got.SubConversationIDs)
	}
}
