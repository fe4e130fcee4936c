package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"smartassistant/internal/llm"
	"smartassistant/internal/tools"
	"smartassistant/internal/weather"
)

// weatherKeywords force the model path: questions about conditions need the
// model to pick arguments, bare city names do not.
var weatherKeywords = []string{"天气", "温度", "气温"}

// WeatherAgent answers weather questions. It is stateless across turns.
type WeatherAgent struct {
	model    llm.Client
	registry *tools.Registry
}

var _ Agent = (*WeatherAgent)(nil)

func NewWeatherAgent(model llm.Client, registry *tools.Registry) *WeatherAgent {
	return &WeatherAgent{model: model, registry: registry}
}

// classifyWeatherInput routes short keyword-free statements straight to the
// tool; the backend model is unreliable at invoking tools on command, and a
// bare city name needs no model judgment.
func classifyWeatherInput(input string) Route {
	if utf8.RuneCountInString(input) >= 20 {
		return RouteModel
	}
	if strings.ContainsAny(input, "?？") {
		return RouteModel
	}
	for _, kw := range weatherKeywords {
		if strings.Contains(input, kw) {
			return RouteModel
		}
	}
	return RouteFast
}

func (a *WeatherAgent) Reply(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if classifyWeatherInput(input) == RouteFast {
		return a.fastPath(ctx, input)
	}
	return a.modelPath(ctx, input)
}

// fastPath treats the input as a location, invokes the tool directly, and
// synthesizes the tool-call exchange so the model only has to narrate the
// result. Empty narration falls back to the raw tool string.
func (a *WeatherAgent) fastPath(ctx context.Context, location string) (string, error) {
	args, err := json.Marshal(weather.LookupArgs{Location: location})
	if err != nil {
		return "", fmt.Errorf("encode lookup arguments: %w", err)
	}
	result := a.registry.Dispatch(ctx, weather.ToolName, string(args))

	callID := uuid.NewString()
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: weatherSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("查询 %s 的天气", location)},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
			ID:        callID,
			Name:      weather.ToolName,
			Arguments: string(args),
		}}},
		{Role: llm.RoleTool, Content: result.Content, ToolCallID: callID},
	}

	reply, err := a.model.Complete(ctx, llm.Request{Messages: msgs})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply.Content) == "" {
		return result.Content, nil
	}
	return reply.Content, nil
}

// modelPath lets the model decide whether to call the tool; at most one
// round of tool calls is dispatched before the final narration call.
func (a *WeatherAgent) modelPath(ctx context.Context, input string) (string, error) {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: weatherSystemPrompt},
		{Role: llm.RoleUser, Content: input},
	}

	reply, err := a.model.Complete(ctx, llm.Request{
		Messages:   msgs,
		Tools:      a.registry.Schemas(),
		ToolChoice: "auto",
	})
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) == 0 {
		return reply.Content, nil
	}

	msgs = append(msgs, assistantMessage(reply))
	for _, tc := range reply.ToolCalls {
		result := a.registry.Dispatch(ctx, tc.Name, tc.Arguments)
		msgs = append(msgs, llm.Message{
			Role:       llm.RoleTool,
			Content:    result.Content,
			ToolCallID: tc.ID,
		})
	}

	final, err := a.model.Complete(ctx, llm.Request{Messages: msgs})
	if err != nil {
		return "", err
	}
	return final.Content, nil
}
