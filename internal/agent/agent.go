// Package agent implements the dialogue orchestrators: the control loops
// that decide whether to call the model, whether to invoke a tool, how to
// fold tool results back into the conversation, and how to guarantee a
// usable answer when the model's narration cannot be trusted.
package agent

import (
	"context"

	"smartassistant/internal/llm"
	"smartassistant/internal/memory"
)

// Agent handles one user message and produces the assistant reply.
type Agent interface {
	Reply(ctx context.Context, input string) (string, error)
}

// Route tags how an incoming weather message is handled.
type Route int

const (
	// RouteFast invokes the tool directly, bypassing the model's own
	// decision to call it.
	RouteFast Route = iota
	// RouteModel lets the model decide via tool_choice=auto.
	RouteModel
)

// InfoState tags whether enough finance facts are known to skip the model's
// tool choice.
type InfoState int

const (
	InfoInsufficient InfoState = iota
	InfoSufficient
)

// sufficientFactCount is the product policy threshold: three known facts are
// enough to compute an answer, with defaults filling the rest.
const sufficientFactCount = 3

func assistantMessage(reply llm.Reply) llm.Message {
	return llm.Message{
		Role:      llm.RoleAssistant,
		Content:   reply.Content,
		ToolCalls: reply.ToolCalls,
	}
}

// turnsToMessages replays conversation turns as model context.
func turnsToMessages(turns []memory.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msg := llm.Message{
			Role:       string(t.Role),
			Content:    t.Content,
			ToolCallID: t.ToolCallID,
		}
		for _, tc := range t.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
		out = append(out, msg)
	}
	return out
}

func toolCallsToTurn(calls []llm.ToolCall) []memory.ToolCall {
	out := make([]memory.ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, memory.ToolCall{
			ID:        tc.ID,
			Name:      tc.Name,
			Arguments: tc.Arguments,
		})
	}
	return out
}
