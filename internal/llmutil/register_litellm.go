//go:build !nolitellm

package llmutil

import (
	"github.com/efebarandurmaz/multillm/internal/llm"
	"github.com/efebarandurmaz/multillm/internal/llm/litellm"
)

func init() {
	registrations = append(registrations, registration{llm.BackendLiteLLM, func(c llm.ProviderConfig) (llm.Provider, error) {
		return litellm.New(c.APIKey, c.Model, c.BaseURL), nil
	}})
}
