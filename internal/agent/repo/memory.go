package repo

import (
	"context"
	"slices"
	"sync"

	"github.com/calendar-agent-poc/server/internal/agent/model"
	"github.com/cloudwego/eino/schema"
)

// MemoryConversationRepository keeps histories for the process lifetime.
type MemoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string][]*schema.Message
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{conversations: make(map[string][]*schema.Message)}
}

func (r *MemoryConversationRepository) AppendMessages(ctx context.Context, conversationID string, messages ...*schema.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	batch := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		batch = append(batch, cloneMessage(m))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conversationID] = append(r.conversations[conversationID], batch...)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.conversations[conversationID]
	msgs := make([]*schema.Message, 0, len(stored))
	for _, m := range stored {
		msgs = append(msgs, cloneMessage(m))
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations[conversationID]), nil
}

// cloneMessage copies the parts of a message callers could mutate in place.
func cloneMessage(m *schema.Message) *schema.Message {
	if m == nil {
		return nil
	}
	c := *m
	c.ToolCalls = slices.Clone(m.ToolCalls)
	return &c
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
