package assistantnode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Response.Message)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: dispatcher returned empty message", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply}, nil
}
