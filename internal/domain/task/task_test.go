package task_test

import (
	"testing"

	"agent-server/services/conversation-sync/internal/domain/task"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		status   task.Status
		expected bool
	}{
		{"waiting_for_sandbox is not terminal", task.StatusWaitingForSandbox, false},
		{"working is not terminal", task.StatusWorking, false},
		{"ready is terminal", task.StatusReady, true},
		{"error is terminal", task.StatusError, true},
		{"unknown backend status is not terminal", task.Status("PAUSED"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		name     string
		status   task.Status
		expected bool
	}{
		{"ready is success", task.StatusReady, true},
		{"error is not success", task.StatusError, false},
		{"working is not success", task.StatusWorking, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsSuccess(); got != tt.expected {
				t.Errorf("Status.IsSuccess() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTask_ResultReference(t *testing.T) {
	subID := "sub-conv-456"

	var nilTask *task.Task
	if got := nilTask.ResultReference(); got != "" {
		t.Errorf("nil task ResultReference() = %q, want empty", got)
	}

	withoutRef := &task.Task{ID: "task-123", Status: task.StatusWorking}
	if got := withoutRef.ResultReference(); got != "" {
		t.Errorf("ResultReference() = %q, want empty", got)
	}

	withRef := &task.Task{ID: "task-123", Status: task.StatusReady, SubConversationID: &subID}
	if got := withRef.ResultReference(); got != subID {
		t.Errorf("ResultReference() = %q, want %q", got, subID)
	}
}

func TestTask_DetailText(t *testing.T) {
	detail := "sandbox provisioning failed"

	withoutDetail := &task.Task{ID: "task-123", Status: task.StatusReady}
	if got := withoutDetail.DetailText(); got != "" {
		t.Errorf("DetailText() = %q, want empty", got)
	}

	withDetail := &task.Task{ID: "task-123", Status: task.StatusError, Detail: &detail}
	if got := withDetail.DetailText(); got != detail {
		t.Errorf("DetailText() = %q, want %q", got, detail)
	}
}
