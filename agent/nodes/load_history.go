package assistantnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
	statex "github.com/tanpawarit/order-desk-assistant/agent/state"
)

func LoadHistory(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrConversationNotFound):
		conv = statex.NewConversation(in.SessionID, in.Now)
	default:
		return nil, fmt.Errorf("load history: %w", err)
	}

	in.Conversation = conv
	return in, nil
}
