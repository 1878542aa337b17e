//go:build !nogemini

package llmutil

import (
	"github.com/efebarandurmaz/multillm/internal/llm"
	"github.com/efebarandurmaz/multillm/internal/llm/gemini"
)

func init() {
	registrations = append(registrations, registration{llm.BackendGemini, func(c llm.ProviderConfig) (llm.Provider, error) {
		return gemini.New(c.APIKey, c.Model, c.BaseURL), nil
	}})
}
