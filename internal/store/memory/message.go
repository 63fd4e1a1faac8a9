package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/types"
)

// MessageRepository stores contact messages in memory.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []types.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(_ context.Context, msg types.Message) (types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	msg.ID = uuid.NewString()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	r.messages = append(r.messages, msg)
	return msg, nil
}

// List returns every message, newest first.
func (r *MessageRepository) List(_ context.Context) ([]types.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.messages)
	slices.Reverse(out)
	if out == nil {
		out = []types.Message{}
	}
	return out, nil
}
