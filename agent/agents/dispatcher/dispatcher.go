package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
	statex "github.com/tanpawarit/order-desk-assistant/agent/state"
	toolx "github.com/tanpawarit/order-desk-assistant/agent/tool"
	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
)

const DefaultMaxSteps = 5

// Dispatcher lets the chat model pick tools until it produces a plain reply.
type Dispatcher struct {
	model        einomodel.ToolCallingChatModel
	execute      toolx.Executor
	template     einoprompt.ChatTemplate
	maxSteps     int
	runner       compose.Runnable[contractx.DispatchRequest, contractx.DispatchResponse]
	logger       zerolog.Logger
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	tools []*schema.ToolInfo,
	execute toolx.Executor,
	systemPrompt string,
	maxSteps int,
) (*Dispatcher, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if execute == nil {
		return nil, fmt.Errorf("%w: tool executor is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}

	d := &Dispatcher{
		model:        toolModel,
		execute:      execute,
		template:     newDispatchTemplate(systemPrompt),
		maxSteps:     maxSteps,
		logger:       logx.Component("dispatcher"),
	}

	runner, err := compileDispatchGraph(ctx, d.prepareMessages, d.reactLoop)
	if err != nil {
		return nil, fmt.Errorf("%w: compile dispatcher graph: %v", contractx.ErrModelInvoke, err)
	}
	d.runner = runner
	return d, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, req contractx.DispatchRequest) (contractx.DispatchResponse, error) {
	return d.runner.Invoke(ctx, req)
}

// newDispatchTemplate renders the system prompt with the request time, then
// prior turns, then the new message. The system prompt must not contain braces.
func newDispatchTemplate(systemPrompt string) einoprompt.ChatTemplate {
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(strings.TrimSpace(systemPrompt)+"\n\nCurrent time (UTC): {now}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{input}"),
	)
}

func (d *Dispatcher) prepareMessages(ctx context.Context, req contractx.DispatchRequest) (*loopState, error) {
	text := strings.TrimSpace(req.UserMessage)
	if text == "" {
		return nil, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	history := make([]*schema.Message, 0, len(req.History))
	for _, turn := range req.History {
		switch turn.Role {
		case statex.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case statex.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	messages, err := d.template.Format(ctx, map[string]any{
		"now":     now.UTC().Format("2006-01-02 15:04"),
		"history": history,
		"input":   text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: format dispatch prompt: %v", contractx.ErrPromptMissing, err)
	}
	return &loopState{Messages: messages}, nil
}

func (d *Dispatcher) reactLoop(ctx context.Context, in *loopState) (contractx.DispatchResponse, error) {
	if in == nil {
		return contractx.DispatchResponse{}, fmt.Errorf("%w: dispatch state is nil", contractx.ErrValidation)
	}

	messages := in.Messages
	var results []contractx.ToolResult
	for step := 1; step <= d.maxSteps; step++ {
		msg, err := d.model.Generate(ctx, messages)
		if err != nil {
			return contractx.DispatchResponse{}, fmt.Errorf("%w: generate step=%d: %v", contractx.ErrModelInvoke, step, err)
		}
		if msg == nil {
			return contractx.DispatchResponse{}, fmt.Errorf("%w: empty model response at step=%d", contractx.ErrSchemaViolation, step)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.DispatchResponse{}, fmt.Errorf("%w: reply has neither content nor tool calls", contractx.ErrSchemaViolation)
			}
			return contractx.DispatchResponse{
				Message:     content,
				ToolResults: results,
				Steps:       step,
			}, nil
		}

		messages = append(messages, schema.AssistantMessage(msg.Content, msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			result, err := d.runToolCall(ctx, call)
			if err != nil {
				return contractx.DispatchResponse{}, err
			}
			results = append(results, result)
			messages = append(messages, schema.ToolMessage(toolMessageContent(result), call.ID))
		}
	}

	return contractx.DispatchResponse{}, fmt.Errorf("%w: no final reply after %d steps", contractx.ErrSchemaViolation, d.maxSteps)
}

func (d *Dispatcher) runToolCall(ctx context.Context, call schema.ToolCall) (contractx.ToolResult, error) {
	name := strings.TrimSpace(call.Function.Name)
	if name == "" {
		return contractx.ToolResult{Error: "tool call name is empty"}, nil
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			d.logger.Warn().Err(err).Str("tool", name).Str("args", raw).Msg("tool arguments are not a JSON object")
			return contractx.ToolResult{
				Tool:  name,
				Error: fmt.Sprintf("arguments for %s must be a JSON object like {\"%s\": \"...\"}", name, toolx.InputParam),
			}, nil
		}
	}

	result, err := d.execute(ctx, name, args)
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("execute tool=%s: %w", name, err)
	}
	d.logger.Debug().Str("tool", name).Interface("args", args).Str("result", result.Result).Str("error", result.Error).Msg("tool executed")
	return result, nil
}

func toolMessageContent(r contractx.ToolResult) string {
	if r.Error != "" {
		return "error: " + r.Error
	}
	return r.Result
}
