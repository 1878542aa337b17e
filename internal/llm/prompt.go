package llm

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Prompt is the full input to an LLM completion call.
type Prompt struct {
	Messages []Message `json:"messages"`
}

// UserPrompt builds the single-turn prompt every backend is called with.
func UserPrompt(text string) *Prompt {
	return &Prompt{Messages: []Message{{Role: RoleUser, Content: text}}}
}
