package dispatcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
)

type loopState struct {
	Messages []*schema.Message
}

func compileDispatchGraph(
	ctx context.Context,
	prepare func(context.Context, contractx.DispatchRequest) (*loopState, error),
	loop func(context.Context, *loopState) (contractx.DispatchResponse, error),
) (compose.Runnable[contractx.DispatchRequest, contractx.DispatchResponse], error) {
	graph := compose.NewGraph[contractx.DispatchRequest, contractx.DispatchResponse]()

	if err := graph.AddLambdaNode("prepare_messages", compose.InvokableLambda(prepare)); err != nil {
		return nil, fmt.Errorf("add dispatch prepare node: %w", err)
	}
	if err := graph.AddLambdaNode("react_loop", compose.InvokableLambda(loop)); err != nil {
		return nil, fmt.Errorf("add dispatch loop node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prepare_messages"); err != nil {
		return nil, fmt.Errorf("add dispatch edge start->prepare: %w", err)
	}
	if err := graph.AddEdge("prepare_messages", "react_loop"); err != nil {
		return nil, fmt.Errorf("add dispatch edge prepare->loop: %w", err)
	}
	if err := graph.AddEdge("react_loop", compose.END); err != nil {
		return nil, fmt.Errorf("add dispatch edge loop->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.react_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatch graph: %w", err)
	}
	return runner, nil
}
