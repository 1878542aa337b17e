package llm

// Backend is the configured model family. The set is closed: anything
// else is reported as an unsupported model.
type Backend string

const (
	BackendLiteLLM Backend = "litellm"
	BackendGemini  Backend = "gemini"
	BackendQwen    Backend = "qwen"
	BackendClaude  Backend = "claude"
)

// Backends lists every supported backend in display order.
var Backends = []Backend{BackendLiteLLM, BackendGemini, BackendQwen, BackendClaude}

// DefaultEndpoints documents where each backend sends requests when no
// base_url is configured.
var DefaultEndpoints = map[Backend]string{
	BackendLiteLLM: "https://api.openai.com/v1/",
	BackendGemini:  "https://generativelanguage.googleapis.com/",
	BackendQwen:    "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation",
	BackendClaude:  "https://api.anthropic.com/",
}

// Valid reports whether b is one of the supported backends.
func (b Backend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}

// DisplayName is the label used as the prefix of backend error text.
func (b Backend) DisplayName() string {
	switch b {
	case BackendLiteLLM:
		return "LiteLLM"
	case BackendGemini:
		return "Gemini"
	case BackendQwen:
		return "Qwen"
	case BackendClaude:
		return "Claude"
	default:
		return string(b)
	}
}

// Library describes the client library a backend is compiled against and
// the build tag that leaves it out of a binary.
type Library struct {
	Name       string
	ExcludeTag string
}

// OptionalLibraries maps backends whose client library can be excluded at
// build time. Qwen only needs net/http and is always present.
var OptionalLibraries = map[Backend]Library{
	BackendLiteLLM: {Name: "LiteLLM", ExcludeTag: "nolitellm"},
	BackendGemini:  {Name: "Google Generative AI", ExcludeTag: "nogemini"},
	BackendClaude:  {Name: "Anthropic", ExcludeTag: "noclaude"},
}
