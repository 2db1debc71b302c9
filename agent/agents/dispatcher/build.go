package dispatcher

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
	llmx "github.com/tanpawarit/order-desk-assistant/agent/llm"
	promptx "github.com/tanpawarit/order-desk-assistant/agent/prompt"
	toolx "github.com/tanpawarit/order-desk-assistant/agent/tool"
)

// NewFromConfig builds the OpenRouter chat model and binds it to the registry's tools.
func NewFromConfig(ctx context.Context, cfg llmx.Config, registry *toolx.Registry) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modelCfg := cfg.OpenRouter()
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create chat model: %v", contractx.ErrModelInvoke, err)
	}

	prompts := promptx.LoadPromptSet()
	return New(ctx, chatModel, registry.Infos(), registry.Executor(), prompts.Assistant, cfg.MaxSteps)
}
