package assistantnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
	statex "github.com/tanpawarit/order-desk-assistant/agent/state"
)

// SaveHistory records the exchange. Tools may already have changed orders by
// now, so a failed save is logged and the reply still goes out.
func SaveHistory(ctx context.Context, in *GraphState, store statex.Store, maxTurns int) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	conv := in.Conversation
	if err := conv.Append(statex.RoleUser, in.Text, in.Now); err != nil {
		return nil, err
	}
	if err := conv.Append(statex.RoleAssistant, in.Response.Message, in.Now); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	conv.Trim(maxTurns)

	if err := store.Save(ctx, conv); err != nil {
		log.Warn().
			Err(err).
			Str("component", "assistant").
			Str("session_id", in.SessionID).
			Msg("save history failed")
	}
	return in, nil
}
