package llm

import (
	"fmt"
	"sort"
)

// ProviderConfig holds all configuration needed to create any LLM provider.
type ProviderConfig struct {
	Backend Backend
	APIKey  string
	Model   string
	BaseURL string // per-call endpoint override; empty means the backend default
}

// ProviderConstructor builds a Provider from config.
type ProviderConstructor func(cfg ProviderConfig) (Provider, error)

// ProviderFactory creates Provider instances from config.
type ProviderFactory struct {
	constructors map[Backend]ProviderConstructor
}

// NewFactory creates an empty factory. Use llmutil.RegisterDefaultProviders
// to fill it with the backends compiled into the binary.
func NewFactory() *ProviderFactory {
	return &ProviderFactory{
		constructors: make(map[Backend]ProviderConstructor),
	}
}

// Register adds a provider constructor under the given backend.
func (f *ProviderFactory) Register(b Backend, ctor ProviderConstructor) {
	f.constructors[b] = ctor
}

// Registered reports whether a constructor exists for b.
func (f *ProviderFactory) Registered(b Backend) bool {
	_, ok := f.constructors[b]
	return ok
}

// Create builds a Provider from config.
//
// A supported backend without a constructor was excluded at build time and
// yields a KindNotInstalled error; an unknown backend yields KindUnsupported.
func (f *ProviderFactory) Create(cfg ProviderConfig) (Provider, error) {
	ctor, ok := f.constructors[cfg.Backend]
	if !ok {
		if lib, optional := OptionalLibraries[cfg.Backend]; optional {
			return nil, &Error{Backend: cfg.Backend, Kind: KindNotInstalled, Library: lib}
		}
		if !cfg.Backend.Valid() {
			return nil, &Error{Backend: cfg.Backend, Kind: KindUnsupported}
		}
		return nil, fmt.Errorf("no constructor for LLM backend %q; registered: %v", cfg.Backend, f.Names())
	}

	provider, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", cfg.Backend, err)
	}
	return provider, nil
}

// Names returns the registered backends in sorted order.
func (f *ProviderFactory) Names() []Backend {
	out := make([]Backend, 0, len(f.constructors))
	for k := range f.constructors {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
