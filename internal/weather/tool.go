package weather

import (
	"context"
	"encoding/json"
	"fmt"

	"smartassistant/internal/tools"
)

// ToolName is how the model requests a weather lookup.
const ToolName = "get_weather"

// LookupArgs are the arguments of the get_weather tool.
type LookupArgs struct {
	Location string `json:"location"`
}

// ToolDefinition exposes the client as a registrable tool.
func ToolDefinition(c *Client) tools.Definition {
	return tools.Definition{
		Name:        ToolName,
		Description: "根据城市名称查询当前天气信息。用户需要先提供城市名称。",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "城市名称，例如：'Beijing' 或 'Shanghai' 等。",
				},
			},
			"required": []string{"location"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args LookupArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
			return c.Lookup(ctx, args.Location), nil
		},
	}
}
