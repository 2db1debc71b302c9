package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	ErrInvalidRole  = errors.New("invalid turn role")
	ErrEmptyContent = errors.New("turn content is empty")
)

type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Conversation is the prior turns of one chat session, oldest first.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"turns,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Append(role Role, content string, now time.Time) error {
	if c == nil {
		return ErrNilConversation
	}
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	c.Turns = append(c.Turns, Turn{Role: role, Content: content, At: now.UTC()})
	c.UpdatedAt = now.UTC()
	return nil
}

// Trim keeps the newest max turns. max <= 0 keeps everything.
func (c *Conversation) Trim(max int) {
	if c == nil || max <= 0 || len(c.Turns) <= max {
		return
	}
	kept := make([]Turn, max)
	copy(kept, c.Turns[len(c.Turns)-max:])
	c.Turns = kept
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, t := range c.Turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidRole, i, t.Role)
		}
	}
	return nil
}
