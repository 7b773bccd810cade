// Package llm dispatches chat requests to configured model providers and
// streams responses back as branch-tagged chunks. Each branch gets its own
// goroutine and channel; cancellation is per branch via context.
package llm

import (
	"strings"
)

// Message is one entry of the prompt history sent to a provider.
type Message struct {
	Role        string // "user" or "assistant"
	Content     string
	ImageBase64 string // optional data URI for user messages
}

// StreamChunk is a piece of a streaming response, tagged with the branch it
// belongs to. Exactly one chunk per stream carries Done=true; Err is set on
// that final chunk when the stream failed.
type StreamChunk struct {
	BranchID string
	Content  string
	Done     bool
	Err      error
}

// ContentPlaceholder marks where extracted page content is injected into the
// system prompt. Prompts without the placeholder get the content appended.
const ContentPlaceholder = "{CONTENT}"

// BuildSystemPrompt merges extracted page content into the configured system
// prompt. An empty pageContent leaves the prompt untouched (the placeholder,
// if present, is removed).
func BuildSystemPrompt(systemPrompt, pageContent string) string {
	if strings.Contains(systemPrompt, ContentPlaceholder) {
		return strings.ReplaceAll(systemPrompt, ContentPlaceholder, pageContent)
	}
	if pageContent == "" {
		return systemPrompt
	}
	if systemPrompt == "" {
		return "Page content:\n\n" + pageContent
	}
	return systemPrompt + "\n\nPage content:\n\n" + pageContent
}
