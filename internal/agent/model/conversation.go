package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AppendMessages appends messages to the conversation in order. Either all
	// of them are stored or none are.
	AppendMessages(ctx context.Context, conversationID string, messages ...*schema.Message) error

	// LoadHistory retrieves the conversation history for a conversation.
	// An unknown conversation yields an empty history, not an error.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the conversation
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
