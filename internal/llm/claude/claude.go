// Package claude implements llm.Provider for the Anthropic Messages API
// using the official SDK.
package claude

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// MaxTokens is sent with every request regardless of prompt length.
const MaxTokens = 1000

// Client implements llm.Provider for Claude models.
type Client struct {
	client  *anthropic.Client
	model   string
	baseURL string
}

// New creates a Claude provider. An empty baseURL keeps the SDK default.
// The SDK's own retry loop is disabled so one call maps to one request.
func New(apiKey, model, baseURL string, opts ...option.RequestOption) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	c := anthropic.NewClient(reqOpts...)
	return &Client{
		client:  &c,
		model:   model,
		baseURL: baseURL,
	}
}

func (c *Client) Name() string { return string(llm.BackendClaude) }

func (c *Client) Complete(ctx context.Context, prompt *llm.Prompt) (*llm.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: MaxTokens,
		Messages:  toSDKMessages(prompt.Messages),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, llm.TransportError(llm.BackendClaude, err)
	}
	if len(resp.Content) == 0 {
		return nil, llm.MissingKeyError(llm.BackendClaude, "content")
	}

	return &llm.Response{
		Content:      resp.Content[0].Text,
		Model:        string(resp.Model),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func toSDKMessages(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		if m.Role == llm.RoleAssistant {
			out[i] = anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content))
		} else {
			out[i] = anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content))
		}
	}
	return out
}
