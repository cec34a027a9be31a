package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"agent-server/services/conversation-sync/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the conversation sync domain.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.ConversationState{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
