package conversations

import (
	"context"

	"github.com/calendar-agent-poc/server/internal/agent/model"
	logx "github.com/calendar-agent-poc/server/pkg/logger"

	"github.com/cloudwego/eino/schema"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
}

func NewMessagesManager(conversationRepo model.ConversationRepository) *MessagesManager {
	return &MessagesManager{conversationRepo: conversationRepo}
}

// GetOrCreate returns the stored history for conversationID. A new thread
// starts out empty.
func (cm *MessagesManager) GetOrCreate(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if history.Messages == nil {
		history.Messages = []*schema.Message{}
	}
	return history, nil
}

// Append validates msgs against the stored history and commits them as one
// batch. Nothing is written when validation fails.
func (cm *MessagesManager) Append(ctx context.Context, conversationID string, msgs ...*schema.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := ValidateAppend(history.Messages, msgs); err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Int("batch", len(msgs)).Msg("rejected append")
		return err
	}
	return cm.conversationRepo.AppendMessages(ctx, conversationID, msgs...)
}

func (cm *MessagesManager) Clear(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.ClearHistory(ctx, conversationID)
}

func (cm *MessagesManager) Count(ctx context.Context, conversationID string) (int, error) {
	return cm.conversationRepo.GetMessageCount(ctx, conversationID)
}
