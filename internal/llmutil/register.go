// Package llmutil wires the backends compiled into a binary into an
// llm.ProviderFactory.
//
// The SDK-backed backends live in their own files behind build tags so a
// binary can be built without them:
//
//	go build -tags nolitellm,nogemini ./cmd/llm-handler
//
// A backend left out this way is reported by the factory as not installed.
package llmutil

import (
	"github.com/efebarandurmaz/multillm/internal/llm"
	"github.com/efebarandurmaz/multillm/internal/llm/qwen"
)

type registration struct {
	backend llm.Backend
	ctor    llm.ProviderConstructor
}

// registrations is appended to by the init functions of the optional
// backend files.
var registrations = []registration{
	{llm.BackendQwen, func(c llm.ProviderConfig) (llm.Provider, error) {
		return qwen.New(c.APIKey, c.Model, c.BaseURL), nil
	}},
}

// RegisterDefaultProviders registers every compiled-in backend into factory.
func RegisterDefaultProviders(factory *llm.ProviderFactory) {
	for _, r := range registrations {
		factory.Register(r.backend, r.ctor)
	}
}

// NewDefaultFactory returns a factory holding every compiled-in backend.
func NewDefaultFactory() *llm.ProviderFactory {
	f := llm.NewFactory()
	RegisterDefaultProviders(f)
	return f
}
