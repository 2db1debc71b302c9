package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps conversations in process memory. It is the default
// backend and loses history on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]Conversation
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]Conversation)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Conversation, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.convs[sessionID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	conv.Turns = append([]Turn(nil), conv.Turns...)
	return &conv, nil
}

func (m *MemoryStore) Save(_ context.Context, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	if err := conv.Validate(); err != nil {
		return err
	}
	stored := *conv
	stored.Turns = append([]Turn(nil), conv.Turns...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[conv.SessionID] = stored
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, sessionID)
	return nil
}
