// Package gemini implements llm.Provider for Google Gemini models using
// the Google Gen AI SDK.
package gemini

import (
	"context"
	"net/http"

	"google.golang.org/genai"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// Client implements llm.Provider for the Gemini API.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// New creates a Gemini provider. An empty baseURL keeps the SDK default.
func New(apiKey, model, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

func (c *Client) Name() string { return string(llm.BackendGemini) }

// Complete configures an SDK client with the API key, addresses the model
// by name and generates content from the prompt.
func (c *Client) Complete(ctx context.Context, prompt *llm.Prompt) (*llm.Response, error) {
	cfg := &genai.ClientConfig{
		APIKey:     c.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.http,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, llm.TransportError(llm.BackendGemini, err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, toContents(prompt.Messages), nil)
	if err != nil {
		return nil, llm.TransportError(llm.BackendGemini, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, llm.MissingKeyError(llm.BackendGemini, "candidates")
	}

	out := &llm.Response{
		Content: resp.Text(),
		Model:   c.model,
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func toContents(msgs []llm.Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = genai.NewContentFromText(m.Content, role)
	}
	return out
}
