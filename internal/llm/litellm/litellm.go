// Package litellm implements llm.Provider for unified-completion proxies
// that speak the OpenAI chat completions protocol (LiteLLM, vLLM, OpenAI).
package litellm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// Client implements llm.Provider over an OpenAI-compatible endpoint.
type Client struct {
	client  openai.Client
	model   string
	baseURL string
}

// New creates a unified-completion provider. baseURL is applied to this
// client only; empty keeps the SDK default (api.openai.com).
func New(apiKey, model, baseURL string, opts ...option.RequestOption) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Client{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		baseURL: baseURL,
	}
}

func (c *Client) Name() string { return string(llm.BackendLiteLLM) }

func (c *Client) Complete(ctx context.Context, prompt *llm.Prompt) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toSDKMessages(prompt.Messages),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, llm.TransportError(llm.BackendLiteLLM, err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.MissingKeyError(llm.BackendLiteLLM, "choices")
	}

	return &llm.Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func toSDKMessages(msgs []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		if m.Role == llm.RoleAssistant {
			out[i] = openai.AssistantMessage(m.Content)
		} else {
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}
