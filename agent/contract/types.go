package contract

import (
	"time"

	statex "github.com/tanpawarit/order-desk-assistant/agent/state"
)

type DispatchRequest struct {
	UserMessage string        `json:"user_message"`
	History     []statex.Turn `json:"history,omitempty"`
	Now         time.Time     `json:"now"`
}

type DispatchResponse struct {
	Message     string       `json:"message"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Steps       int          `json:"steps"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult carries a tool's reply text in Result. Error is reserved for
// calls that never reached a tool, such as unknown names or malformed args.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
