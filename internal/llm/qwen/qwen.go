// Package qwen implements llm.Provider for the DashScope text-generation
// endpoint that serves Qwen models.
package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// DefaultEndpoint is used when no base_url is configured.
const DefaultEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// Client implements llm.Provider for the DashScope generation API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

// New creates a Qwen provider. endpoint is the full URL requests are
// POSTed to; empty selects DefaultEndpoint.
func New(apiKey, model, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		http:     &http.Client{},
	}
}

func (c *Client) Name() string { return string(llm.BackendQwen) }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model string `json:"model"`
	Input struct {
		Messages []message `json:"messages"`
	} `json:"input"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (c *Client) Complete(ctx context.Context, prompt *llm.Prompt) (*llm.Response, error) {
	var body request
	body.Model = c.model
	body.Input.Messages = make([]message, len(prompt.Messages))
	for i, m := range prompt.Messages {
		body.Input.Messages[i] = message{Role: string(m.Role), Content: m.Content}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, llm.APIError(llm.BackendQwen, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, llm.APIError(llm.BackendQwen, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, llm.APIError(llm.BackendQwen, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.APIError(llm.BackendQwen, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, llm.APIError(llm.BackendQwen, fmt.Errorf("%s for url: %s: %s", resp.Status, c.endpoint, bytes.TrimSpace(respBody)))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(respBody, &fields); err != nil {
		return nil, llm.APIError(llm.BackendQwen, decodeError(err))
	}
	rawOutput, ok := fields["output"]
	if !ok || isNull(rawOutput) {
		return nil, llm.MissingKeyError(llm.BackendQwen, "output")
	}
	// An output that is not an object has no text field either.
	var output map[string]json.RawMessage
	if err := json.Unmarshal(rawOutput, &output); err != nil {
		return nil, llm.MissingKeyError(llm.BackendQwen, "text")
	}
	rawText, ok := output["text"]
	if !ok || isNull(rawText) {
		return nil, llm.MissingKeyError(llm.BackendQwen, "text")
	}
	var text string
	if err := json.Unmarshal(rawText, &text); err != nil {
		return nil, llm.APIError(llm.BackendQwen, errors.New("decoding response: output.text is not a string"))
	}

	var u usage
	if raw, ok := fields["usage"]; ok {
		_ = json.Unmarshal(raw, &u)
	}

	return &llm.Response{
		Content:      text,
		Model:        c.model,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
	}, nil
}

// decodeError keeps JSON syntax errors, which describe the body, and hides
// type mismatches, which describe Go types.
func decodeError(err error) error {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return errors.New("decoding response: body is not a JSON object")
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
