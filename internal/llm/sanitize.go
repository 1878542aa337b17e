package llm

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// StripThinkingTags removes <think>...</think> blocks from LLM output.
// Qwen reasoning models emit them ahead of the answer. An unterminated
// block swallows the rest of the text.
func StripThinkingTags(s string) string {
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, thinkOpen)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		end := strings.Index(rest[start:], thinkClose)
		if end < 0 {
			break
		}
		rest = rest[start+end+len(thinkClose):]
	}
	return strings.TrimSpace(b.String())
}
