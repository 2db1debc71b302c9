package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/order-desk-assistant/agent/nodes"
)

func (a *Assistant) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadHistory(ctx, in, a.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_history: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Dispatch(ctx, in, a.dispatcher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch: %w", err)
	}

	if err := graph.AddLambdaNode("save_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveHistory(ctx, in, a.store, a.maxTurns)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_history: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_history"},
		{"load_history", "dispatch"},
		{"dispatch", "save_history"},
		{"save_history", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile assistant graph: %w", err)
	}
	return runner, nil
}
