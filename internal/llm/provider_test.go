package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/wookiisky/think-bot/internal/config"
)

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		content string
		want    string
	}{
		{"placeholder replaced", "Answer using: {CONTENT}", "the page", "Answer using: the page"},
		{"placeholder removed when empty", "Answer using: {CONTENT}", "", "Answer using: "},
		{"appended without placeholder", "Be brief.", "the page", "Be brief.\n\nPage content:\n\nthe page"},
		{"content only", "", "the page", "Page content:\n\nthe page"},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildSystemPrompt(tt.prompt, tt.content); got != tt.want {
				t.Errorf("BuildSystemPrompt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRequest_OpenAI(t *testing.T) {
	m := config.NewModel(config.ProviderOpenAI)
	m.APIKey = "sk-test"
	m.BaseURL = "https://api.openai.com/v1/"
	m.Model = "gpt-4o"

	method, url, header, body, err := buildRequest(m, []Message{{Role: "user", Content: "hi"}}, "system here")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if method != "POST" || url != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("Request target = %s %s", method, url)
	}
	if got := header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}

	var req openAIRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("Body: %v", err)
	}
	if !req.Stream || req.Model != "gpt-4o" {
		t.Errorf("Request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("Messages = %+v, want system prompt first", req.Messages)
	}
}

func TestBuildRequest_Azure(t *testing.T) {
	m := config.NewModel(config.ProviderAzure)
	m.APIKey = "azure-key"
	m.Endpoint = "https://example.openai.azure.com"
	m.DeploymentName = "gpt4"

	_, url, header, body, err := buildRequest(m, []Message{{Role: "user", Content: "hi"}}, "")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	want := "https://example.openai.azure.com/openai/deployments/gpt4/chat/completions?api-version=" + m.APIVersion
	if url != want {
		t.Errorf("URL = %s, want %s", url, want)
	}
	if header.Get("api-key") != "azure-key" {
		t.Error("Azure auth should use the api-key header")
	}
	if strings.Contains(string(body), `"model"`) {
		t.Error("Azure body should not carry a model name")
	}
}

func TestBuildRequest_Gemini(t *testing.T) {
	m := config.NewModel(config.ProviderGemini)
	m.APIKey = "g-key"
	m.BaseURL = "https://generativelanguage.googleapis.com"
	m.Model = "gemini-pro"
	m.ThinkingBudget = 1024

	messages := []Message{
		{Role: "user", Content: "look", ImageBase64: "data:image/png;base64,AAAA"},
		{Role: "assistant", Content: "seen"},
	}
	_, url, header, body, err := buildRequest(m, messages, "sys")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if !strings.Contains(url, "models/gemini-pro:streamGenerateContent?alt=sse") {
		t.Errorf("URL = %s", url)
	}
	if header.Get("x-goog-api-key") != "g-key" {
		t.Error("Gemini auth should use x-goog-api-key")
	}

	var req geminiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("Body: %v", err)
	}
	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "sys" {
		t.Error("System instruction missing")
	}
	if len(req.Contents) != 2 || req.Contents[1].Role != "model" {
		t.Errorf("Contents = %+v, want assistant mapped to model role", req.Contents)
	}
	if len(req.Contents[0].Parts) != 2 || req.Contents[0].Parts[1].InlineData == nil {
		t.Error("Image should become an inlineData part")
	}
	if req.GenerationConfig.ThinkingConfig == nil || req.GenerationConfig.ThinkingConfig.ThinkingBudget != 1024 {
		t.Error("Thinking budget should be forwarded")
	}
}

func TestBuildRequest_UnknownProvider(t *testing.T) {
	m := config.Model{Provider: "mystery"}
	if _, _, _, _, err := buildRequest(m, nil, ""); err == nil {
		t.Error("Unknown provider should fail")
	}
}

func TestDecodeEvent(t *testing.T) {
	text, err := decodeEvent(config.ProviderOpenAI, `{"choices":[{"delta":{"content":"hi"}}]}`)
	if err != nil || text != "hi" {
		t.Errorf("OpenAI decode = %q, %v", text, err)
	}

	text, err = decodeEvent(config.ProviderGemini, `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`)
	if err != nil || text != "ab" {
		t.Errorf("Gemini decode = %q, %v", text, err)
	}

	if _, err = decodeEvent(config.ProviderOpenAI, `{"error":{"message":"quota"}}`); err == nil {
		t.Error("Error event should surface as error")
	}

	// Malformed payloads are skipped, not fatal.
	text, err = decodeEvent(config.ProviderOpenAI, "not json")
	if err != nil || text != "" {
		t.Errorf("Malformed payload = %q, %v", text, err)
	}
}
