package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "k", Model: "openai/gpt-4o-mini", MaxSteps: 5}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.MaxSteps = 0
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if err := (Config{Model: "m", MaxSteps: 1}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing key, got %v", err)
	}
}

func TestOpenRouterTrimsFields(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseURL:            " https://openrouter.ai/api/v1 ",
		APIKey:             " key ",
		Model:              " openai/gpt-4o-mini ",
		MaxCompletionToken: 512,
		Temperature:        0.2,
	}
	or := cfg.OpenRouter()
	if or.APIKey != "key" || or.Model != "openai/gpt-4o-mini" || or.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected openrouter config: %+v", or)
	}
	if or.MaxCompletionToken == nil || *or.MaxCompletionToken != 512 {
		t.Fatalf("unexpected max tokens: %v", or.MaxCompletionToken)
	}
}
