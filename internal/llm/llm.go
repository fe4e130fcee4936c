// Package llm wraps the chat-completion capability behind a small contract:
// ordered messages in, one assistant reply (text and/or tool calls) out.
package llm

import "context"

// Message roles of the chat-completion protocol.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the model context window.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation emitted or replayed to the model. Arguments
// is the serialized JSON argument object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool advertises one callable function to the model. Parameters is a
// JSON-schema-like object describing the argument record.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one chat-completion call. Tools and ToolChoice are optional;
// when Tools is empty the model cannot request a call.
type Request struct {
	Messages   []Message
	Tools      []Tool
	ToolChoice string
}

// Reply is the assistant message returned by the model. Content may be empty
// when the reply only carries tool calls.
type Reply struct {
	Role      string
	Content   string
	ToolCalls []ToolCall
}

// Client is the chat-completion capability used by the orchestrators.
type Client interface {
	Complete(ctx context.Context, req Request) (Reply, error)
}
