// Package llm defines the provider abstraction shared by every hosted
// model backend, along with the error vocabulary used to report failures
// as plain text.
package llm

import "context"

// Provider is the interface all LLM backends must implement.
type Provider interface {
	// Complete sends a prompt and returns a completion.
	Complete(ctx context.Context, prompt *Prompt) (*Response, error)
	// Name returns the backend identifier (e.g. "qwen", "claude").
	Name() string
}
