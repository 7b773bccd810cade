package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// StreamClient streams a chat completion, invoking onText for each text
// fragment as it arrives. Implementations return once the stream ends; a
// non-nil error from onText aborts the stream.
type StreamClient interface {
	Stream(ctx context.Context, model config.Model, messages []Message, systemPrompt string, onText func(string) error) error
}

// requestTimeout bounds a whole streaming request. Generous because slow
// models can legitimately stream for minutes.
const requestTimeout = 5 * time.Minute

// sseDataPrefix per the server-sent events wire format.
const sseDataPrefix = "data: "

// doneSentinel terminates OpenAI-compatible streams.
const doneSentinel = "[DONE]"

// HTTPClient is the production StreamClient, speaking SSE to all three
// provider APIs.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a streaming client. Timeout covers dial and headers;
// the body read is bounded by the request context instead.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			// No overall client timeout: it would kill long streams.
			// Cancellation comes from the request context.
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// Stream issues the provider request and feeds text fragments to onText.
func (c *HTTPClient) Stream(ctx context.Context, model config.Model, messages []Message, systemPrompt string, onText func(string) error) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	method, url, header, body, err := buildRequest(model, messages, systemPrompt)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return errors.E(errors.Op("llm.Stream"), errors.KindLLM, err)
	}
	req.Header = header

	logger.Debug("LLM: %s request to %s (%d messages)", model.Provider, url, len(messages))

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.E(errors.Op("llm.Stream"), errors.KindTimeout, err)
		}
		return errors.E(errors.Op("llm.Stream"), errors.KindNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Error bodies are small JSON blobs; read a bounded amount for the message.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.E(errors.Op("llm.Stream"), errors.KindLLM,
			fmt.Sprintf("%s returned %d: %s", model.Provider, resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	return c.readSSE(resp.Body, model.Provider, onText)
}

// readSSE consumes the event stream line by line, decoding data payloads per
// provider.
func (c *HTTPClient) readSSE(body io.Reader, provider string, onText func(string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, sseDataPrefix)
		if payload == doneSentinel {
			return nil
		}

		text, err := decodeEvent(provider, payload)
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		if err := onText(text); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.E(errors.Op("llm.Stream"), errors.KindNetwork, err)
	}
	return nil
}

func decodeEvent(provider, payload string) (string, error) {
	switch provider {
	case config.ProviderGemini:
		var ev geminiStreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// Skip malformed keep-alive lines rather than failing the stream.
			logger.Warn("LLM: Skipping undecodable gemini event: %v", err)
			return "", nil
		}
		if ev.Error != nil {
			return "", errors.E(errors.Op("llm.Stream"), errors.KindLLM, ev.Error.Message)
		}
		var sb strings.Builder
		for _, cand := range ev.Candidates {
			for _, part := range cand.Content.Parts {
				sb.WriteString(part.Text)
			}
		}
		return sb.String(), nil

	default: // openai and azure share the delta format
		var ev openAIStreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			logger.Warn("LLM: Skipping undecodable %s event: %v", provider, err)
			return "", nil
		}
		if ev.Error != nil {
			return "", errors.E(errors.Op("llm.Stream"), errors.KindLLM, ev.Error.Message)
		}
		if len(ev.Choices) == 0 {
			return "", nil
		}
		return ev.Choices[0].Delta.Content, nil
	}
}
