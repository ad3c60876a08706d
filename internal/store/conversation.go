package store

import (
	"time"

	"github.com/google/uuid"

	"readest-ai-core/internal/model"
)

// NewConversation builds a Conversation with a fresh id and
// createdAt/updatedAt set to now, for the caller (the chat adapter) to
// persist via Store.SaveConversation on the first user message of a
// new thread.
func NewConversation(bookHash, title string) model.Conversation {
	now := time.Now()
	return model.Conversation{
		ID:        uuid.NewString(),
		BookHash:  bookHash,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewMessage builds a Message with a fresh id and createdAt set to
// now, for the caller to persist via Store.SaveMessage. role must be
// RoleUser or RoleAssistant; the system role is never persisted.
func NewMessage(conversationID string, role model.Role, content string) model.Message {
	return model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}
