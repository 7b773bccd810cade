package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/errors"
)

// Provider request shaping. OpenAI and Azure share the chat-completions wire
// format; Azure differs only in URL layout and auth header. Gemini uses its
// own generateContent format, requested with alt=sse so all three providers
// stream server-sent events.

type openAIRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []openAIMessage `json:"messages"`
	Stream      bool            `json:"stream"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or content-part array when an image rides along
}

type openAIContentPart struct {
	Type     string          `json:"type"` // "text" or "image_url"
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenCfg struct {
	MaxOutputTokens int                   `json:"maxOutputTokens,omitempty"`
	Temperature     float64               `json:"temperature,omitempty"`
	ThinkingConfig  *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiStreamEvent struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// buildRequest builds the provider-specific HTTP request for a streaming
// chat completion.
func buildRequest(model config.Model, messages []Message, systemPrompt string) (method, url string, header http.Header, body []byte, err error) {
	switch model.Provider {
	case config.ProviderOpenAI:
		return buildOpenAIRequest(model, messages, systemPrompt)
	case config.ProviderGemini:
		return buildGeminiRequest(model, messages, systemPrompt)
	case config.ProviderAzure:
		return buildAzureRequest(model, messages, systemPrompt)
	default:
		return "", "", nil, nil, errors.E(errors.Op("llm.BuildRequest"), errors.KindInvalid,
			fmt.Sprintf("unknown provider %q", model.Provider))
	}
}

func openAIMessages(messages []Message, systemPrompt string) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openAIMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		if m.ImageBase64 != "" && m.Role == "user" {
			out = append(out, openAIMessage{Role: m.Role, Content: []openAIContentPart{
				{Type: "text", Text: m.Content},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: m.ImageBase64}},
			}})
			continue
		}
		out = append(out, openAIMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func buildOpenAIRequest(model config.Model, messages []Message, systemPrompt string) (string, string, http.Header, []byte, error) {
	req := openAIRequest{
		Model:       model.Model,
		Messages:    openAIMessages(messages, systemPrompt),
		Stream:      true,
		MaxTokens:   model.MaxTokens,
		Temperature: model.Temperature,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", "", nil, nil, err
	}

	url := strings.TrimSuffix(model.BaseURL, "/") + "/chat/completions"
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+model.APIKey)
	return http.MethodPost, url, header, body, nil
}

func buildAzureRequest(model config.Model, messages []Message, systemPrompt string) (string, string, http.Header, []byte, error) {
	req := openAIRequest{
		// Azure routes by deployment, not by model name in the body.
		Messages:    openAIMessages(messages, systemPrompt),
		Stream:      true,
		MaxTokens:   model.MaxTokens,
		Temperature: model.Temperature,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", "", nil, nil, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimSuffix(model.Endpoint, "/"), model.DeploymentName, model.APIVersion)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("api-key", model.APIKey)
	return http.MethodPost, url, header, body, nil
}

// splitDataURI splits a data URI into mime type and raw base64 payload.
// Returns empty strings when the input is not a data URI.
func splitDataURI(uri string) (mimeType, data string) {
	if !strings.HasPrefix(uri, "data:") {
		return "", ""
	}
	rest := strings.TrimPrefix(uri, "data:")
	semi := strings.Index(rest, ";base64,")
	if semi < 0 {
		return "", ""
	}
	return rest[:semi], rest[semi+len(";base64,"):]
}

func buildGeminiRequest(model config.Model, messages []Message, systemPrompt string) (string, string, http.Header, []byte, error) {
	req := geminiRequest{}
	if systemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		content := geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}}
		if mime, data := splitDataURI(m.ImageBase64); data != "" {
			content.Parts = append(content.Parts, geminiPart{
				InlineData: &geminiInlineData{MimeType: mime, Data: data},
			})
		}
		req.Contents = append(req.Contents, content)
	}
	cfg := &geminiGenCfg{
		MaxOutputTokens: model.MaxTokens,
		Temperature:     model.Temperature,
	}
	if model.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &geminiThinkingConfig{ThinkingBudget: model.ThinkingBudget}
	}
	req.GenerationConfig = cfg

	body, err := json.Marshal(req)
	if err != nil {
		return "", "", nil, nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		strings.TrimSuffix(model.BaseURL, "/"), model.Model)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("x-goog-api-key", model.APIKey)
	return http.MethodPost, url, header, body, nil
}
