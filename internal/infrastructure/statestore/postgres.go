package statestore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/infrastructure/database/entities"
	"agent-server/services/conversation-sync/internal/infrastructure/metrics"
)

// PostgresStore persists conversation state rows via GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the stored record, falling back to defaults when absent.
func (s *PostgresStore) Get(ctx context.Context, conversationID string) (conversation.LocalState, error) {
	var entity entities.ConversationState
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.DefaultState(), nil
		}
		return conversation.LocalState{}, fmt.Errorf("read conversation state: %w", err)
	}
	return fromEntity(&entity), nil
}

// Merge applies the patch inside a transaction holding a row lock, so
// concurrent writers that name disjoint fields cannot clobber each other.
func (s *PostgresStore) Merge(ctx context.Context, conversationID string, patch conversation.StatePatch) (conversation.LocalState, error) {
	var merged conversation.LocalState

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.ConversationState
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("conversation_id = ?", conversationID).
			First(&entity).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			merged = patch.Apply(conversation.DefaultState())
			entity = toEntity(conversationID, merged)
			return tx.Create(&entity).Error
		case err != nil:
			return fmt.Errorf("lock conversation state: %w", err)
		}

		merged = patch.Apply(fromEntity(&entity))
		update := toEntity(conversationID, merged)
		update.ID = entity.ID
		update.CreatedAt = entity.CreatedAt
		return tx.Save(&update).Error
	})
	if err != nil {
		return conversation.LocalState{}, err
	}
	metrics.StateWritesTotal.WithLabelValues("postgres").Inc()
	return merged, nil
}

// ClearTaskID nulls the task id with a single guarded UPDATE, so the
// compare and the clear are one atomic statement.
func (s *PostgresStore) ClearTaskID(ctx context.Context, conversationID, taskID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&entities.ConversationState{}).
		Where("conversation_id = ? AND sub_conversation_task_id = ?", conversationID, taskID).
		Update("sub_conversation_task_id", nil)
	if result.Error != nil {
		return false, fmt.Errorf("clear task id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	metrics.StateWritesTotal.WithLabelValues("postgres").Inc()
	return true, nil
}

// Delete removes the stored record for a conversation.
func (s *PostgresStore) Delete(ctx context.Context, conversationID string) error {
	return s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&entities.ConversationState{}).Error
}

// InFlight lists conversations with an unresolved task id.
func (s *PostgresStore) InFlight(ctx context.Context) (map[string]string, error) {
	var rows []entities.ConversationState
	err := s.db.WithContext(ctx).
		Where("sub_conversation_task_id IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list in-flight state: %w", err)
	}

	inflight := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.SubConversationTaskID != nil {
			inflight[row.ConversationID] = *row.SubConversationTaskID
		}
	}
	return inflight, nil
}

func fromEntity(e *entities.ConversationState) conversation.LocalState {
	tabs := make([]string, len(e.UnpinnedTabs))
	copy(tabs, e.UnpinnedTabs)
	return conversation.LocalState{
		SelectedTab:           e.SelectedTab,
		RightPanelShown:       e.RightPanelShown,
		UnpinnedTabs:          tabs,
		SubConversationTaskID: e.SubConversationTaskID,
	}
}

func toEntity(conversationID string, s conversation.LocalState) entities.ConversationState {
	return entities.ConversationState{
		ConversationID:        conversationID,
		SelectedTab:           s.SelectedTab,
		RightPanelShown:       s.RightPanelShown,
		UnpinnedTabs:          append([]string(nil), s.UnpinnedTabs...),
		SubConversationTaskID: s.SubConversationTaskID,
	}
}

var _ conversation.StateStore = (*PostgresStore)(nil)
