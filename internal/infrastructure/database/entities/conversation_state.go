package entities

import (
	"time"

	"github.com/lib/pq"
)

// ConversationState is the database schema for per-conversation local state.
type ConversationState struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	ConversationID        string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	SelectedTab           string         `gorm:"type:varchar(50);not null"`
	RightPanelShown       bool           `gorm:"not null;default:true"`
	UnpinnedTabs          pq.StringArray `gorm:"type:text[]"`
	SubConversationTaskID *string        `gorm:"type:varchar(64);index"`
}

// TableName specifies the table name for ConversationState.
func (ConversationState) TableName() string {
	return "conversation_states"
}
