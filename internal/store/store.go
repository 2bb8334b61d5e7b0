// Package store holds per-user conversation state between messages.
package store

import (
	"context"

	"autolead-bot/internal/models"
)

// ConversationStore persists ConversationContext between incoming messages.
// Get returns (nil, nil) when the user has no active conversation.
type ConversationStore interface {
	Get(ctx context.Context, userID int64) (*models.ConversationContext, error)
	Put(ctx context.Context, conversation *models.ConversationContext) error
	Delete(ctx context.Context, userID int64) error
}
