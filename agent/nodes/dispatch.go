package assistantnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
)

func Dispatch(ctx context.Context, in *GraphState, dispatcher contractx.Dispatcher) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	resp, err := dispatcher.Dispatch(ctx, contractx.DispatchRequest{
		UserMessage: in.Text,
		History:     in.Conversation.Turns,
		Now:         in.Now,
	})
	if err != nil {
		return nil, err
	}

	in.Response = resp
	return in, nil
}
