package memory

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the assistant. IDs are opaque
// and scoped to a single exchange.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Turn is a single conversation entry. Assistant turns may carry tool calls
// with no content; tool turns answer exactly one call via ToolCallID.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ModelContextWindow is the number of most recent turns offered to the model
// when building chat context. The full history is still retained for
// extraction.
const ModelContextWindow = 10
