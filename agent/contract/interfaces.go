package contract

import "context"

// Dispatcher turns one user message plus prior turns into a reply,
// invoking tools on the way.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResponse, error)
}

type ToolGateway interface {
	Execute(ctx context.Context, reqs []ToolRequest) ([]ToolResult, error)
}
