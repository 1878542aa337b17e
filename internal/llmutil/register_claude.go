//go:build !noclaude

package llmutil

import (
	"github.com/efebarandurmaz/multillm/internal/llm"
	"github.com/efebarandurmaz/multillm/internal/llm/claude"
)

func init() {
	registrations = append(registrations, registration{llm.BackendClaude, func(c llm.ProviderConfig) (llm.Provider, error) {
		return claude.New(c.APIKey, c.Model, c.BaseURL), nil
	}})
}
