package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures one OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Proxy URLs; empty values fall back to the environment so a system
	// proxy or VPN keeps working.
	HTTPProxy  string
	HTTPSProxy string
}

// OpenAIClient talks to a single OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	base   string
	model  string
	client *openai.Client
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client for one endpoint.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = cfg.BaseURL
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conf.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: proxyTransport(cfg.HTTPProxy, cfg.HTTPSProxy),
	}
	return &OpenAIClient{
		base:   cfg.BaseURL,
		model:  cfg.Model,
		client: openai.NewClientWithConfig(conf),
	}
}

// BaseURL returns the endpoint this client talks to.
func (c *OpenAIClient) BaseURL() string {
	return c.base
}

// Complete performs one chat-completion round trip.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Reply, error) {
	oreq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		oreq.Tools = toOpenAITools(req.Tools)
		if req.ToolChoice != "" {
			oreq.ToolChoice = req.ToolChoice
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return Reply{}, classifyErr(c.base, err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("chat completion from %s returned no choices", c.base)
	}

	msg := resp.Choices[0].Message
	reply := Reply{
		Role:    msg.Role,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		om := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, om)
	}
	return out
}

func toOpenAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func proxyTransport(httpProxy, httpsProxy string) http.RoundTripper {
	if httpProxy == "" && httpsProxy == "" {
		return http.DefaultTransport
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = func(req *http.Request) (*url.URL, error) {
		raw := httpProxy
		if req.URL.Scheme == "https" && httpsProxy != "" {
			raw = httpsProxy
		}
		if raw == "" {
			return http.ProxyFromEnvironment(req)
		}
		return url.Parse(raw)
	}
	return tr
}
